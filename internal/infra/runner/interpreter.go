package runner

// InterpreterForExtension resolves the interpreter command for a script
// extension. Unknown extensions run under bash so plain executable scripts
// still work.
func InterpreterForExtension(ext string) string {
	switch ext {
	case ".py":
		return "python3"
	case ".sh":
		return "bash"
	case ".ts", ".js":
		return "node"
	default:
		return "bash"
	}
}
