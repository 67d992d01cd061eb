package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// OsExitAnalyzer запрещает прямой вызов os.Exit в функции main пакета main.
var OsExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "prohibits direct calls to os.Exit in main function of main package",
	Run:      runOsExitCheck,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// SleepAnalyzer запрещает time.Sleep вне тестов: пауза должна прерываться
// отменой контекста (таймер и select по ctx.Done()).
var SleepAnalyzer = &analysis.Analyzer{
	Name: "sleepcheck",
	Doc:  "prohibits time.Sleep outside of _test.go files; use a timer with select on ctx.Done()",
	Run:  runSleepCheck,
}

func runOsExitCheck(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(node ast.Node) {
		funcDecl := node.(*ast.FuncDecl)
		if funcDecl.Name.Name != "main" || funcDecl.Recv != nil || funcDecl.Body == nil {
			return
		}

		reportCalls(pass, funcDecl.Body, "os", "Exit", "avoid direct os.Exit call in main function of main package")
	})

	return nil, nil
}

func runSleepCheck(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		name := pass.Fset.Position(file.Pos()).Filename
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		reportCalls(pass, file, "time", "Sleep", "time.Sleep ignores context cancellation; wait on a timer and ctx.Done() instead")
	}
	return nil, nil
}

// reportCalls сообщает о каждом вызове pkgPath.funcName внутри root
func reportCalls(pass *analysis.Pass, root ast.Node, pkgPath, funcName, message string) {
	ast.Inspect(root, func(n ast.Node) bool {
		callExpr, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		selExpr, ok := callExpr.Fun.(*ast.SelectorExpr)
		if !ok || selExpr.Sel.Name != funcName {
			return true
		}

		ident, ok := selExpr.X.(*ast.Ident)
		if !ok {
			return true
		}
		if pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName); ok && pkgName.Imported().Path() == pkgPath {
			pass.Reportf(callExpr.Pos(), "%s", message)
		}
		return true
	})
}
