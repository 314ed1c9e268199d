package harness

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"liva/internal/judge/model"
	"liva/internal/judge/sandbox/engine"
	appErr "liva/pkg/errors"
)

const (
	javaLanguageID = "java"

	javaMainFile     = "Main.java"
	javaCommonFile   = "Common.java"
	javaSolutionFile = "Solution.java"

	defaultClasspath     = "/opt/judge/lib/gson.jar"
	defaultCompileCmdTpl = "javac -encoding UTF-8 -cp {classpath} Main.java Common.java Solution.java"
	defaultRunCmdTpl     = "java -Xmx{heapMb}m -XX:+UseSerialGC -cp .:{classpath} Main"
)

// JavaConfig controls the Java harness builder.
type JavaConfig struct {
	// Classpath points at the serializer library linked into the harness.
	Classpath     string `yaml:"classpath"`
	CompileCmdTpl string `yaml:"compileCmdTpl"`
	RunCmdTpl     string `yaml:"runCmdTpl"`
}

// JavaBuilder assembles the Java harness: the problem's Main, a synthesized
// Common helper module, and the candidate adapted into Solution.java.
type JavaBuilder struct {
	cfg JavaConfig
}

// NewJavaBuilder creates a Java builder, applying template defaults.
func NewJavaBuilder(cfg JavaConfig) *JavaBuilder {
	if cfg.Classpath == "" {
		cfg.Classpath = defaultClasspath
	}
	if cfg.CompileCmdTpl == "" {
		cfg.CompileCmdTpl = defaultCompileCmdTpl
	}
	if cfg.RunCmdTpl == "" {
		cfg.RunCmdTpl = defaultRunCmdTpl
	}
	return &JavaBuilder{cfg: cfg}
}

func (b *JavaBuilder) Language() string {
	return javaLanguageID
}

func (b *JavaBuilder) Build(ctx context.Context, problem *model.Problem, candidateCode string, heapMb int64) (Harness, error) {
	harnessCode, ok := problem.Harness[javaLanguageID]
	if !ok || strings.TrimSpace(harnessCode.Main) == "" {
		return Harness{}, appErr.Newf(appErr.HarnessMissing,
			"problem %s ships no java harness", problem.ProblemID)
	}

	replacements := map[string]string{
		"classpath": b.cfg.Classpath,
		"heapMb":    strconv.FormatInt(heapMb, 10),
	}
	compileCmd, err := buildCommand(b.cfg.CompileCmdTpl, replacements)
	if err != nil {
		return Harness{}, err
	}
	runCmd, err := buildCommand(b.cfg.RunCmdTpl, replacements)
	if err != nil {
		return Harness{}, err
	}

	return Harness{
		Files: []engine.FileSpec{
			{Path: javaMainFile, Content: harnessCode.Main},
			{Path: javaCommonFile, Content: renderCommon(problem)},
			{Path: javaSolutionFile, Content: adaptCandidate(candidateCode)},
		},
		CompileCmd: compileCmd,
		RunCmd:     runCmd,
	}, nil
}

var javaClassDeclRe = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// adaptCandidate canonicalizes the candidate source into Solution.java. The
// solution class is renamed to Solution; bare methods are wrapped in a
// synthesized class body.
func adaptCandidate(code string) string {
	name := pickSolutionClass(code)
	if name == "" {
		var b strings.Builder
		b.WriteString("import java.util.*;\n\nclass Solution {\n")
		for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("}\n")
		return b.String()
	}

	adapted := code
	if name != "Solution" {
		wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		adapted = wordRe.ReplaceAllString(adapted, "Solution")
	}
	// One public class per file; Solution.java must match.
	adapted = regexp.MustCompile(`(?m)^(\s*)public\s+(?:final\s+)?class\s+Solution\b`).
		ReplaceAllString(adapted, "${1}class Solution")
	return adapted
}

// pickSolutionClass chooses which declared class is the candidate's solution:
// a class already named Solution, else the public class, else the first
// declaration. Helper classes declared before the solution class stay intact.
// Returns "" when the source declares no class at all.
func pickSolutionClass(code string) string {
	matches := javaClassDeclRe.FindAllStringSubmatch(code, -1)
	if len(matches) == 0 {
		return ""
	}
	public := ""
	for _, m := range matches {
		if m[1] == "Solution" {
			return "Solution"
		}
		if public == "" && strings.Contains(m[0], "public") {
			public = m[1]
		}
	}
	if public != "" {
		return public
	}
	return matches[0][1]
}
