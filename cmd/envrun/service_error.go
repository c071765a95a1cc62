// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"envrun-cli/internal/container"
	"envrun-cli/internal/dag"
	"envrun-cli/internal/issue"
	"envrun-cli/internal/runner"
	"envrun-cli/pkg/envfile"

	"github.com/charmbracelet/log"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When Execute receives a ServiceError, it renders the styled
// message (if present) and the issue help section before exiting.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a failure to an issue catalog ID (0 when none fits)
// and returns a styled message for CLI rendering.
func classifyError(err error, verbose bool) (issue.Id, string) {
	if err == nil {
		return 0, ""
	}

	var issueID issue.Id
	if is, ok := issue.IssueOf(err); ok {
		issueID = is.Id()
	} else {
		switch {
		case errors.Is(err, envfile.ErrEnvFileNotFound):
			issueID = issue.EnvFileNotFoundId
		case errors.Is(err, envfile.ErrParse), errors.Is(err, envfile.ErrFileTooLarge):
			issueID = issue.EnvFileParseErrorId
		case errors.Is(err, envfile.ErrInvalidFile):
			issueID = issue.EnvFileInvalidId
		case errors.Is(err, envfile.ErrUnknownEnv):
			issueID = issue.UnknownEnvId
		case errors.Is(err, envfile.ErrInvalidRuntimeMode):
			issueID = issue.InvalidRuntimeModeId
		case errors.Is(err, dag.ErrCycle):
			issueID = issue.DependencyCycleId
		case errors.Is(err, runner.ErrExternalNotFound):
			issueID = issue.ExternalNotFoundId
		case errors.Is(err, runner.ErrCommandNotAllowed):
			issueID = issue.ExternalNotAllowedId
		case errors.Is(err, container.ErrEngineNotAvailable):
			issueID = issue.ContainerEngineUnavailableId
		case errors.Is(err, os.ErrPermission):
			issueID = issue.PermissionDeniedId
		}
	}

	return issueID, fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// asServiceError classifies err unless it already carries rendering information.
func asServiceError(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	var exitErr *ExitError
	if errors.As(err, &svcErr) || errors.As(err, &exitErr) {
		return err
	}
	issueID, styled := classifyError(err, verbose)
	return newServiceError(err, issueID, styled)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their own format, which shows the chain when verbose.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderServiceError prints the styled message, then the issue help section
// rendered with the glamour style.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	renderIssue(stderr, svcErr.IssueID, style)
}

func renderIssue(w io.Writer, id issue.Id, style string) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(style)
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "err", err)
		return
	}
	fmt.Fprint(w, rendered)
}
