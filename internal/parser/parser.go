package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"sort"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/utils"
)

// Parser implements the PackageParser interface
type Parser struct {
	fileSet       *token.FileSet
	fileProcessor *utils.FileProcessor
	directives    *annotations.DirectiveParser
	duplicates    DuplicatePolicy
	loader        PackageLoader
}

// Option configures a Parser
type Option func(*Parser)

// WithDuplicatePolicy sets how duplicate method names are handled
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(p *Parser) {
		p.duplicates = policy
	}
}

// WithPackageLoader sets how packages of embedded interfaces are loaded. A nil
// loader turns interfaces embedded from other packages into errors.
func WithPackageLoader(loader PackageLoader) Option {
	return func(p *Parser) {
		p.loader = loader
	}
}

// WithGeneratedFileName sets the generated file name the parser skips
func WithGeneratedFileName(name string) Option {
	return func(p *Parser) {
		p.fileProcessor = utils.NewFileProcessorWithReader(utils.NewFileReaderWithFileSet(p.fileSet), name)
	}
}

// NewParser creates a new directive parser
func NewParser(opts ...Option) *Parser {
	fset := token.NewFileSet()
	p := &Parser{
		fileSet:       fset,
		fileProcessor: utils.NewFileProcessorWithReader(utils.NewFileReaderWithFileSet(fset), utils.DefaultGeneratedFileName),
		directives:    annotations.NewDirectiveParser(),
		loader:        NewTypesLoader(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FileSet returns the file set all positions are recorded in
func (p *Parser) FileSet() *token.FileSet {
	return p.fileSet
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source, importPath string) (*models.PackageMetadata, error) {
	file, err := p.fileProcessor.GetFileReader().ParseGoSource(filename, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	files := map[string]*ast.File{filename: file}
	return p.parsePackage(files, []string{filename}, file.Name.Name, filepath.Dir(filename), importPath), nil
}

// ParseDirectory parses the Go files of a single package directory
func (p *Parser) ParseDirectory(path, importPath string) (*models.PackageMetadata, error) {
	files, order, packageName, err := p.fileProcessor.ParseDirectoryFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory %s: %w", path, err)
	}
	return p.parsePackage(files, order, packageName, path, importPath), nil
}

func (p *Parser) parsePackage(files map[string]*ast.File, order []string, packageName, dir, importPath string) *models.PackageMetadata {
	metadata := &models.PackageMetadata{
		PackageName:  packageName,
		PackagePath:  dir,
		ImportPath:   importPath,
		Interfaces:   make(map[string]*models.InterfaceDescriptor),
		Declarations: make(map[string]bool),
		TypeMethods:  make(map[string]map[string]bool),
		Files:        files,
	}

	specs := make(map[string]*ast.TypeSpec)
	specFiles := make(map[string]*ast.File)

	for _, path := range order {
		file := files[path]
		collectDeclarations(file, metadata, specs, specFiles)
	}

	lookup := func(name string) (*ast.TypeSpec, *ast.File, bool) {
		spec, ok := specs[name]
		if !ok {
			return nil, nil, false
		}
		if _, isIface := spec.Type.(*ast.InterfaceType); !isIface {
			return nil, nil, false
		}
		return spec, specFiles[name], true
	}
	extractor := NewExtractor(p.fileSet, p.duplicates, lookup, func(err error) {
		metadata.Warnings = append(metadata.Warnings, err)
	})
	if p.loader != nil {
		extractor.SetPackageLoader(p.loader, loadDir(dir))
	}

	for _, path := range order {
		p.extractDirectives(files[path], path, metadata, extractor)
	}

	return metadata
}

// loadDir is the directory imports are resolved from. Sources parsed from
// memory may name a directory that does not exist; the working directory is
// used for those.
func loadDir(dir string) string {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

func collectDeclarations(file *ast.File, metadata *models.PackageMetadata, specs map[string]*ast.TypeSpec, specFiles map[string]*ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					metadata.Declarations[s.Name.Name] = true
					specs[s.Name.Name] = s
					specFiles[s.Name.Name] = file
				case *ast.ValueSpec:
					for _, name := range s.Names {
						metadata.Declarations[name.Name] = true
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				metadata.Declarations[d.Name.Name] = true
				continue
			}
			recv := receiverTypeName(d.Recv.List[0].Type)
			if recv == "" {
				continue
			}
			if metadata.TypeMethods[recv] == nil {
				metadata.TypeMethods[recv] = make(map[string]bool)
			}
			metadata.TypeMethods[recv][d.Name.Name] = true
		}
	}
}

// extractDirectives finds directives in the doc comments of type declarations.
// Directive comments anywhere else in the file are reported as misplaced.
func (p *Parser) extractDirectives(file *ast.File, path string, metadata *models.PackageMetadata, extractor *Extractor) {
	consumed := make(map[*ast.Comment]bool)
	imports := FileImports(file)

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec := spec.(*ast.TypeSpec)

			var comments []*ast.Comment
			if typeSpec.Doc != nil {
				comments = append(comments, typeSpec.Doc.List...)
			}
			if len(gen.Specs) == 1 && gen.Doc != nil {
				comments = append(comments, gen.Doc.List...)
			}
			sort.SliceStable(comments, func(i, j int) bool { return comments[i].Slash < comments[j].Slash })

			_, isInterface := typeSpec.Type.(*ast.InterfaceType)
			target := models.DirectiveTarget{
				TypeName:    typeSpec.Name.Name,
				TypeParams:  extractor.fieldList(typeSpec.TypeParams),
				IsInterface: isInterface,
				FilePath:    path,
				Imports:     imports,
			}

			mockable := false
			for _, c := range comments {
				if !annotations.IsDirective(c.Text) {
					continue
				}
				consumed[c] = true

				directive, err := p.directives.ParseDirective(c.Text, Location(p.fileSet, c.Slash))
				if err != nil {
					metadata.Errors = append(metadata.Errors, err)
					continue
				}
				if err := checkPlacement(directive, target); err != nil {
					metadata.Errors = append(metadata.Errors, err)
					continue
				}

				t := target
				t.Directive = directive
				metadata.Directives = append(metadata.Directives, t)
				if directive.Kind == annotations.MockableDirective {
					mockable = true
				}
			}

			if mockable {
				if _, seen := metadata.Interfaces[typeSpec.Name.Name]; seen {
					continue
				}
				desc, err := extractor.Extract(typeSpec, file, metadata.ImportPath)
				if err != nil {
					metadata.Errors = append(metadata.Errors, err)
					continue
				}
				metadata.Interfaces[typeSpec.Name.Name] = desc
			}
		}
	}

	for _, group := range file.Comments {
		for _, c := range group.List {
			if annotations.IsDirective(c.Text) && !consumed[c] {
				metadata.Errors = append(metadata.Errors, errors.NewArgumentParseError("directive",
					"must be placed in the doc comment of a type declaration", Location(p.fileSet, c.Slash)))
			}
		}
	}
}

func checkPlacement(d *annotations.Directive, target models.DirectiveTarget) error {
	switch d.Kind {
	case annotations.MockableDirective:
		if !target.IsInterface {
			return errors.NewArgumentParseError("mockable",
				fmt.Sprintf("%s is not an interface", target.TypeName), d.Loc)
		}
	case annotations.GenerateDirective:
		if target.IsInterface {
			return errors.NewArgumentParseError("generate",
				fmt.Sprintf("cannot generate methods on interface %s", target.TypeName), d.Loc)
		}
		if len(d.Args) != 1 || !d.Args[0].IsBare() {
			return errors.NewArgumentParseError("generate",
				"expects exactly one interface name, e.g. //mock::generate Reader", d.Loc)
		}
	case annotations.ReturnsDirective:
		if len(d.Args) == 0 {
			return errors.NewArgumentParseError("returns", "expects at least one 'method = expr' entry", d.Loc)
		}
		for _, arg := range d.Args {
			if arg.IsBare() {
				return errors.NewArgumentParseError("returns",
					fmt.Sprintf("'%s' needs a value, e.g. %s = expr", arg.Name, arg.Name), arg.Loc)
			}
			if !token.IsIdentifier(arg.Name) {
				return errors.NewArgumentParseError("returns",
					fmt.Sprintf("'%s' is not a method name", arg.Name), arg.Loc)
			}
		}
	}
	return nil
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}
