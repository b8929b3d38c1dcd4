package session

import "path/filepath"

// codeExtensions is the fixed allowlist of file extensions that count as
// reviewable code. Files with no extension or an unlisted one are treated as
// non-code; a PR touching only such files is skipped.
var codeExtensions = map[string]bool{
	".go":    true,
	".ts":    true,
	".tsx":   true,
	".js":    true,
	".jsx":   true,
	".py":    true,
	".rb":    true,
	".java":  true,
	".kt":    true,
	".rs":    true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".hpp":   true,
	".cs":    true,
	".swift": true,
	".scala": true,
	".php":   true,
	".sql":   true,
	".sh":    true,
	".tf":    true,
}

// hasCodeFiles reports whether any changed file matches the code allowlist
func hasCodeFiles(files []string) bool {
	for _, f := range files {
		if codeExtensions[filepath.Ext(f)] {
			return true
		}
	}
	return false
}
