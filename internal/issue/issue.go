// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	EnvFileNotFoundId Id = iota + 1
	EnvFileParseErrorId
	EnvFileInvalidId
	UnknownEnvId
	ExternalNotFoundId
	ExternalNotAllowedId
	ContainerEngineUnavailableId
	CommandFailedId
	ConfigLoadFailedId
	InvalidRuntimeModeId
	DependencyCycleId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation about the issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the Markdown message with the given glamour style
// ("dark", "light", "notty", "auto" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	envFileNotFoundIssue = &Issue{
		id: EnvFileNotFoundId,
		mdMsg: `
# No environment file found!

envrun looked for a ` + "`tox.ini`" + ` (then an ` + "`envrun.toml`" + `) in the current
directory and every parent directory, and found neither.

## Things you can try:
- Create a starter file with lint, test and integration environments:
~~~
$ envrun init
~~~

- Or point envrun at an existing file:
~~~
$ envrun run --file path/to/tox.ini
~~~`,
		extLinks: []HttpLink{"https://tox.wiki/en/latest/config.html"},
	}

	envFileParseErrorIssue = &Issue{
		id: EnvFileParseErrorId,
		mdMsg: `
# Failed to parse the environment file!

The file is not valid INI (or TOML). The error above names the section and
key that could not be read.

## Common mistakes:
- A continuation line that is not indented
- A ` + "`setenv`" + ` line without ` + "`=`" + `
- A boolean that is not one of ` + "`true`" + `/` + "`false`" + `
- Unbalanced braces in ` + "`envlist`" + `, e.g. ` + "`py{311,312`" + `

## Example:
~~~ini
[testenv:test]
allowlist_externals = poetry
commands =
    poetry install
    poetry run pytest {posargs:tests/unit}
~~~`,
	}

	envFileInvalidIssue = &Issue{
		id: EnvFileInvalidId,
		mdMsg: `
# The environment file is invalid!

The file parsed, but some settings do not make sense together.

## Things to check:
- Every name in ` + "`envlist`" + ` and ` + "`depends`" + ` has a ` + "`[testenv:NAME]`" + ` section
- Every environment has at least one command
- ` + "`runtime`" + ` is either ` + "`native`" + ` or ` + "`virtual`" + `

You can print the resolved environments with:
~~~
$ envrun show
~~~`,
	}

	unknownEnvIssue = &Issue{
		id: UnknownEnvId,
		mdMsg: `
# Unknown environment!

The environment you asked for is not defined in the environment file.

## Things you can try:
- List the environments that exist:
~~~
$ envrun list
~~~

- Run several at once with a comma separated list, or all of them:
~~~
$ envrun run -e lint,test
$ envrun run -e ALL
~~~`,
	}

	externalNotFoundIssue = &Issue{
		id: ExternalNotFoundId,
		mdMsg: `
# A required program is not installed!

An environment lists a program in ` + "`allowlist_externals`" + ` that could not
be found on ` + "`PATH`" + `. No command was run.

## Things you can try:
- Install the program (for example ` + "`pipx install poetry`" + `)
- Make sure the directory containing it is on ` + "`PATH`" + `
- If the program lives in a custom location, use its absolute path in the allowlist`,
		extLinks: []HttpLink{"https://python-poetry.org/docs/#installation"},
	}

	externalNotAllowedIssue = &Issue{
		id: ExternalNotAllowedId,
		mdMsg: `
# Command not allowed!

A command runs a program that is missing from the environment's
` + "`allowlist_externals`" + `.

## Things you can try:
- Add the program to the allowlist:
~~~ini
[testenv:test]
allowlist_externals =
    poetry
    make
~~~

- Or allow a whole directory with a glob, e.g. ` + "`/usr/bin/*`" + ``,
	}

	containerEngineUnavailableIssue = &Issue{
		id: ContainerEngineUnavailableId,
		mdMsg: `
# Container engine is not available!

An environment allows ` + "`docker`" + ` or ` + "`podman`" + `, but the engine did not
answer a version probe. Integration environments usually need it running.

## Things you can try:
- Start Docker Desktop, or the daemon:
~~~
$ sudo systemctl start docker
~~~

- For podman, start the socket (or machine on macOS):
~~~
$ systemctl --user start podman.socket
$ podman machine start
~~~

- Check that your user can reach the daemon:
~~~
$ docker version
~~~`,
		extLinks: []HttpLink{
			"https://docs.docker.com/engine/install/",
			"https://podman.io/docs/installation",
		},
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# A command failed!

A command exited with a non-zero status, so the environment stopped and its
remaining commands were skipped. ` + "`commands_post`" + ` still ran.

## Things you can try:
- Re-run only the failing environment with more output:
~~~
$ envrun run -e test --verbose
~~~

- Prefix a command with ` + "`-`" + ` to ignore its exit status, or set
  ` + "`ignore_errors = true`" + ` to keep going after failures`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The envrun configuration file could not be read or does not match the schema.

## Things you can try:
- Print where envrun looks for its configuration:
~~~
$ envrun config path
~~~

- Write a fresh default configuration:
~~~
$ envrun config init
~~~

## Example config.cue:
~~~cue
default_runtime: "native"
container_engine: "docker"
fail_fast: false
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidRuntimeModeIssue = &Issue{
		id: InvalidRuntimeModeId,
		mdMsg: `
# Invalid runtime mode!

Commands run either ` + "`native`" + ` (the program is executed directly, without a
shell) or ` + "`virtual`" + ` (the line is interpreted by the built-in POSIX shell).

## Things you can try:
- Fix the ` + "`runtime`" + ` key of the environment, or ` + "`default_runtime`" + ` in the config
- Override it for one run:
~~~
$ envrun run --runtime virtual
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The ` + "`depends`" + ` settings of the selected environments form a cycle, so there
is no order in which they can run.

## Things you can try:
- Remove one of the ` + "`depends`" + ` entries on the cycle
- Print each environment's dependencies:
~~~
$ envrun show
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A command names a file that exists but cannot be executed.

## Things you can try:
- Make the script executable:
~~~
$ chmod +x ./scripts/check.sh
~~~

- Or run it through an interpreter, e.g. ` + "`bash ./scripts/check.sh`" + ``,
	}

	issues = map[Id]*Issue{
		envFileNotFoundIssue.Id():            envFileNotFoundIssue,
		envFileParseErrorIssue.Id():          envFileParseErrorIssue,
		envFileInvalidIssue.Id():             envFileInvalidIssue,
		unknownEnvIssue.Id():                 unknownEnvIssue,
		externalNotFoundIssue.Id():           externalNotFoundIssue,
		externalNotAllowedIssue.Id():         externalNotAllowedIssue,
		containerEngineUnavailableIssue.Id(): containerEngineUnavailableIssue,
		commandFailedIssue.Id():              commandFailedIssue,
		configLoadFailedIssue.Id():           configLoadFailedIssue,
		invalidRuntimeModeIssue.Id():         invalidRuntimeModeIssue,
		dependencyCycleIssue.Id():            dependencyCycleIssue,
		permissionDeniedIssue.Id():           permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
