package session

import (
	stderrors "errors"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
)

// Coded maps a graph sentinel error to a coded error. Errors that already
// carry a code, and nil, are returned unchanged.
func Coded(err error) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	switch {
	case stderrors.Is(err, graph.ErrUnknownNode),
		stderrors.Is(err, graph.ErrUnknownSourceNode),
		stderrors.Is(err, graph.ErrUnknownTargetNode):
		return errors.Wrap(errors.ErrCodeNodeNotFound, err, "node not found")
	case stderrors.Is(err, graph.ErrUnknownEdge):
		return errors.Wrap(errors.ErrCodeNotFound, err, "edge not found")
	case stderrors.Is(err, graph.ErrInvalidName):
		return errors.Wrap(errors.ErrCodeInvalidName, err, "rejected name")
	case stderrors.Is(err, graph.ErrDuplicateName),
		stderrors.Is(err, graph.ErrDuplicateID),
		stderrors.Is(err, graph.ErrDuplicateEdge):
		return errors.Wrap(errors.ErrCodeConflict, err, "conflict")
	case stderrors.Is(err, graph.ErrInvalidValue):
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "rejected value")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "graph operation failed")
}
