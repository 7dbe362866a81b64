package dispatch

import (
	"context"

	"lgtnav/internal/artifact"
	"lgtnav/internal/hierarchy"
	"lgtnav/internal/results"
	"lgtnav/internal/staleness"
)

// Operation names a facade entry point.
type Operation string

const (
	OpPrepareCallHierarchy Operation = "prepareCallHierarchy"
	OpPrepareTypeHierarchy Operation = "prepareTypeHierarchy"
	OpIncomingCalls        Operation = "incomingCalls"
	OpOutgoingCalls        Operation = "outgoingCalls"
	OpSupertypes           Operation = "supertypes"
	OpSubtypes             Operation = "subtypes"
	OpReferences           Operation = "references"
	OpTypeDefinition       Operation = "typeDefinition"
	OpRunTests             Operation = "runTests"
	OpTestResults          Operation = "testResults"
	OpRunMetrics           Operation = "runMetrics"
	OpMetrics              Operation = "metrics"
)

// Dispatch routes op to its entry point. Only an unknown op is an error.
func (f *Facade) Dispatch(ctx context.Context, op Operation, req Request) (any, error) {
	switch op {
	case OpPrepareCallHierarchy:
		return f.PrepareCallHierarchy(ctx, req), nil
	case OpPrepareTypeHierarchy:
		return f.PrepareTypeHierarchy(ctx, req), nil
	case OpIncomingCalls:
		return f.IncomingCalls(ctx, req), nil
	case OpOutgoingCalls:
		return f.OutgoingCalls(ctx, req), nil
	case OpSupertypes:
		return f.Supertypes(ctx, req), nil
	case OpSubtypes:
		return f.Subtypes(ctx, req), nil
	case OpReferences:
		return f.References(ctx, req), nil
	case OpTypeDefinition:
		return f.TypeDefinition(ctx, req), nil
	case OpRunTests:
		return f.RunTests(ctx, req), nil
	case OpTestResults:
		return f.TestResults(ctx, req), nil
	case OpRunMetrics:
		return f.RunMetrics(ctx, req), nil
	case OpMetrics:
		return f.Metrics(ctx, req), nil
	default:
		return nil, invalidOperation(op)
	}
}

// PrepareCallHierarchy returns the item under the cursor.
func (f *Facade) PrepareCallHierarchy(ctx context.Context, req Request) []hierarchy.Item {
	if ctx.Err() != nil || req.File == "" || req.Symbol == "" {
		return []hierarchy.Item{}
	}
	return []hierarchy.Item{f.builder.PrepareCall(req.File, req.Position.Line, req.Symbol)}
}

// PrepareTypeHierarchy returns the entity under the cursor, placed on its
// opening directive when the file has one.
func (f *Facade) PrepareTypeHierarchy(ctx context.Context, req Request) []hierarchy.Item {
	if ctx.Err() != nil || req.File == "" || req.Symbol == "" {
		return []hierarchy.Item{}
	}
	return []hierarchy.Item{f.builder.PrepareType(req.File, req.Position.Line, req.Symbol)}
}

// IncomingCalls returns the callers of the symbol at the cursor.
func (f *Facade) IncomingCalls(ctx context.Context, req Request) []hierarchy.IncomingCall {
	a, ok := f.analyze(ctx, artifact.KindCallers, req)
	if !ok {
		return []hierarchy.IncomingCall{}
	}
	return f.builder.Incoming(a.text, focus(req))
}

// OutgoingCalls returns the callees of the symbol at the cursor.
func (f *Facade) OutgoingCalls(ctx context.Context, req Request) []hierarchy.OutgoingCall {
	a, ok := f.analyze(ctx, artifact.KindCallees, req)
	if !ok {
		return []hierarchy.OutgoingCall{}
	}
	return f.builder.Outgoing(a.text, focus(req))
}

// Supertypes returns the ancestors of the entity at the cursor.
func (f *Facade) Supertypes(ctx context.Context, req Request) []hierarchy.Item {
	a, ok := f.analyze(ctx, artifact.KindAncestors, req)
	if !ok {
		return []hierarchy.Item{}
	}
	return f.builder.Supertypes(a.text)
}

// Subtypes returns the descendants of the entity at the cursor.
func (f *Facade) Subtypes(ctx context.Context, req Request) []hierarchy.Item {
	a, ok := f.analyze(ctx, artifact.KindDescendants, req)
	if !ok {
		return []hierarchy.Item{}
	}
	return f.builder.Subtypes(a.text)
}

// References returns the places referring to the symbol at the cursor.
func (f *Facade) References(ctx context.Context, req Request) []hierarchy.Location {
	a, ok := f.analyze(ctx, artifact.KindReferences, req)
	if !ok {
		return []hierarchy.Location{}
	}
	return f.builder.References(a.text)
}

// TypeDefinition returns where the entity at the cursor is defined.
func (f *Facade) TypeDefinition(ctx context.Context, req Request) []hierarchy.Location {
	a, ok := f.analyze(ctx, artifact.KindTypeDefinition, req)
	if !ok {
		return []hierarchy.Location{}
	}
	return f.builder.TypeDefinition(a.text)
}

// RunTests runs the tests of req.File and returns its results.
func (f *Facade) RunTests(ctx context.Context, req Request) []results.TestItem {
	a, ok := f.analyze(ctx, artifact.KindTestResults, req)
	if !ok {
		return f.renderTests("", req)
	}
	f.ingest(a, staleness.TestResults, f.results.IngestTests)
	return f.renderTests(a.root, req)
}

// TestResults renders the test results known for req.File, taking in any
// artifact the engine has written since the last call.
func (f *Facade) TestResults(ctx context.Context, req Request) []results.TestItem {
	if ctx.Err() != nil {
		return []results.TestItem{}
	}
	a, ok := f.consumeCached(artifact.KindTestResults, req)
	if !ok {
		if !f.Config().Cache.Enabled {
			return f.renderTests("", req)
		}
		return f.renderTests(a.root, req)
	}
	f.ingest(a, staleness.TestResults, f.results.IngestTests)
	return f.renderTests(a.root, req)
}

// RunMetrics computes the metrics of req.File and returns them.
func (f *Facade) RunMetrics(ctx context.Context, req Request) []results.MetricItem {
	a, ok := f.analyze(ctx, artifact.KindMetrics, req)
	if !ok {
		return f.renderMetrics("", req)
	}
	f.ingest(a, staleness.Metrics, f.results.IngestMetrics)
	return f.renderMetrics(a.root, req)
}

// Metrics renders the metrics known for req.File.
func (f *Facade) Metrics(ctx context.Context, req Request) []results.MetricItem {
	if ctx.Err() != nil {
		return []results.MetricItem{}
	}
	a, ok := f.consumeCached(artifact.KindMetrics, req)
	if !ok {
		if !f.Config().Cache.Enabled {
			return f.renderMetrics("", req)
		}
		return f.renderMetrics(a.root, req)
	}
	f.ingest(a, staleness.Metrics, f.results.IngestMetrics)
	return f.renderMetrics(a.root, req)
}

func (f *Facade) ingest(a analysis, kind staleness.Kind, store func(root, text string) (int, error)) {
	if !f.Config().Cache.Enabled {
		if err := f.results.Clear(a.root, kind); err != nil {
			a.logger.Warn("Failed to clear cached results", "error", err.Error())
		}
	}
	if _, err := store(a.root, a.text); err != nil {
		a.logger.Error("Failed to store results", "error", err.Error())
		return
	}
	f.tracker.RunSucceeded(kind)
	f.saveStaleness()
}

func (f *Facade) renderTests(root string, req Request) []results.TestItem {
	if root == "" {
		return []results.TestItem{}
	}
	items, err := f.results.Tests(root, req.File, req.Modified)
	if err != nil {
		f.logger.Error("Failed to load test results", "error", err.Error())
		return []results.TestItem{}
	}
	return items
}

func (f *Facade) renderMetrics(root string, req Request) []results.MetricItem {
	if root == "" {
		return []results.MetricItem{}
	}
	items, err := f.results.Metrics(root, req.File, req.Modified)
	if err != nil {
		f.logger.Error("Failed to load metrics", "error", err.Error())
		return []results.MetricItem{}
	}
	return items
}

func focus(req Request) hierarchy.Focus {
	return hierarchy.Focus{Symbol: req.Symbol, File: req.File, Line: req.Position.Line + 1}
}
