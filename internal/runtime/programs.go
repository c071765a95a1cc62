// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"envrun-cli/pkg/envfile"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ProgramsOf returns the external programs a command line invokes under mode.
//
// A native line runs exactly one program, its first word. A virtual line may
// run several through pipes and lists; every simple command whose name is a
// literal and not a shell builtin is reported, in source order. Names built
// from expansions cannot be known before running and are left out.
func ProgramsOf(mode envfile.RuntimeMode, line string, env map[string]string) ([]string, error) {
	if mode != envfile.RuntimeVirtual {
		program, err := ProgramOf(line, env)
		if err != nil {
			return nil, err
		}
		return []string{program}, nil
	}

	prog, err := parseLine(line)
	if err != nil {
		return nil, err
	}

	var programs []string
	syntax.Walk(prog, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		name := call.Args[0].Lit()
		if name != "" && !interp.IsBuiltin(name) {
			programs = append(programs, name)
		}
		return true
	})
	return programs, nil
}
