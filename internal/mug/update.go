package mug

import (
	"context"

	"github.com/emberble/mugctl/internal/protocol"
)

// UpdateInitial fetches the attributes that rarely change: the extended
// first-contact set when the model reports extended-attribute support, the
// base set otherwise.
func (m *Mug) UpdateInitial(ctx context.Context) ([]Change, error) {
	return m.updateMultiple(ctx, m.Data.Model.InitialAttributes())
}

// UpdateAll fetches the full periodic-refresh attribute set.
func (m *Mug) UpdateAll(ctx context.Context) ([]Change, error) {
	return m.updateMultiple(ctx, m.Data.Model.UpdateAttributes())
}

// UpdateQueuedAttributes drains the notification-driven refresh queue and
// fetches exactly those attributes. An empty queue returns immediately
// without any transport I/O.
func (m *Mug) UpdateQueuedAttributes(ctx context.Context) ([]Change, error) {
	attrs := m.drainQueuedAttributes()
	if len(attrs) == 0 {
		return nil, nil
	}
	m.logger.WithField("attributes", attrs.String()).Debug("Updating queued attributes")
	return m.updateMultiple(ctx, attrs)
}

// updateMultiple reads each attribute through its accessor and applies the
// collected values to the snapshot in one step. An unsupported attribute
// surfaces its error, but values already resolved in the batch are still
// applied.
func (m *Mug) updateMultiple(ctx context.Context, attrs protocol.Set) ([]Change, error) {
	m.logger.WithField("attributes", attrs.String()).Debug("Updating attributes")
	if err := m.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	values := make(map[protocol.Attribute]any, len(attrs))
	var failure error
	for _, attr := range attrs.Sorted() {
		acc, ok := m.accessors.Get(attr)
		if !ok {
			failure = &UnsupportedAttributeError{Attribute: attr, Model: m.ModelName()}
			break
		}
		value, err := acc.get(ctx)
		if err != nil {
			failure = err
			break
		}
		values[attr] = value
	}

	m.dataMu.Lock()
	changes := m.Data.Apply(values)
	m.dataMu.Unlock()
	if len(changes) > 0 {
		m.fireCallbacks()
	}
	m.logger.WithField("changes", len(changes)).Debug("Attributes updated")
	return changes, failure
}
