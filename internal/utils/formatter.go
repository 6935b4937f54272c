package utils

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"golang.org/x/tools/imports"
)

// ProcessImports formats source and drops imports it does not reference.
// filename only affects how goimports resolves the package directory.
func ProcessImports(filename string, source []byte) ([]byte, error) {
	out, err := imports.Process(filename, source, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
	if err != nil {
		if parseErr := ValidateGoCode(string(source)); parseErr != nil {
			return source, fmt.Errorf("invalid Go syntax: %w (imports error: %v)", parseErr, err)
		}
		return source, err
	}
	return out, nil
}

// WriteGoFile writes already formatted code, creating or truncating filename
func WriteGoFile(filename string, code []byte) error {
	return os.WriteFile(filename, code, 0644)
}

// ValidateGoCode checks if the provided code is valid Go syntax
func ValidateGoCode(code string) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "", code, parser.ParseComments)
	return err
}
