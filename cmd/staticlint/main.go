// Команда staticlint проверяет код сервиса набором анализаторов: проходы
// x/tools, нужные для HTTP-кода с контекстами и горутинами, классы SA и S
// staticcheck, stylecheck без правил о комментариях к пакетам и именованию,
// go-critic, errcheck и собственные osexit и sleepcheck.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/go-critic/go-critic/checkers/analyzer"
	"github.com/kisielk/errcheck/errcheck"
)

// Правила stylecheck, которые не применяются: не у каждого пакета есть
// комментарий, а имена следуют соглашениям сервиса.
var skippedStyleChecks = map[string]bool{
	"ST1000": true,
	"ST1003": true,
}

func main() {
	multichecker.Main(analyzers()...)
}

func analyzers() []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		OsExitAnalyzer,
		SleepAnalyzer,

		// контексты, горутины и сигналы
		lostcancel.Analyzer,
		copylock.Analyzer,
		atomic.Analyzer,
		loopclosure.Analyzer,
		defers.Analyzer,
		sigchanyzer.Analyzer,

		// HTTP и JSON
		httpresponse.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,

		// ошибки и общие ошибки программирования
		errorsas.Analyzer,
		printf.Analyzer,
		nilness.Analyzer,
		nilfunc.Analyzer,
		ifaceassert.Analyzer,
		stringintconv.Analyzer,
		stdmethods.Analyzer,
		assign.Analyzer,
		bools.Analyzer,
		composite.Analyzer,
		timeformat.Analyzer,
		unreachable.Analyzer,
		unusedresult.Analyzer,
		tests.Analyzer,

		analyzer.Analyzer, // go-critic
		errcheck.Analyzer,
	}

	checks = appendLint(checks, staticcheck.Analyzers, func(name string) bool {
		return strings.HasPrefix(name, "SA")
	})
	checks = appendLint(checks, simple.Analyzers, func(string) bool { return true })
	checks = appendLint(checks, stylecheck.Analyzers, func(name string) bool {
		return !skippedStyleChecks[name]
	})

	return checks
}

func appendLint(dst []*analysis.Analyzer, src []*lint.Analyzer, keep func(name string) bool) []*analysis.Analyzer {
	for _, v := range src {
		if keep(v.Analyzer.Name) {
			dst = append(dst, v.Analyzer)
		}
	}
	return dst
}
