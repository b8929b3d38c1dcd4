package domain

// RemoteComment is a previously posted review comment read back from the
// hosting platform. Hash is empty when the comment is not bot-authored or
// its marker could not be parsed (replies, human comments).
type RemoteComment struct {
	ID     int64
	NodeID string
	File   string
	Line   int
	Hash   string
}

// HasHash reports whether a finding identity was recovered from the comment
func (c *RemoteComment) HasHash() bool {
	return c.Hash != ""
}

// PullRequest is the metadata a session needs to address one PR revision
type PullRequest struct {
	Owner        string
	Repo         string
	Number       int
	BaseBranch   string
	HeadBranch   string
	HeadSHA      string
	ChangedFiles int
}

// FullName renders the owner/repo pair
func (p *PullRequest) FullName() string {
	return p.Owner + "/" + p.Repo
}
