package ledger

import (
	"context"
	"fmt"

	"github.com/gridtime/gridtime/pkg/timefmt"
)

// createPeriodSegment provisions a new period segment named for the current
// date in the document's timezone, laying out the checkbox, summary
// formulas, headers, widths, number formats and seed formulas in a single
// batched mutation. Configuration is ensured first so that provisioning
// never fails merely because the Config segment has not been created yet.
func (e *Engine) createPeriodSegment(ctx context.Context, docID, timezone string) (string, error) {
	if err := e.settings.Ensure(ctx, docID); err != nil {
		return "", err
	}

	local := timefmt.ApplyTimezone(e.now(), timezone)
	name := timefmt.FormatDate(local)

	if _, err := e.store.CreateSegment(ctx, docID, name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSegmentCreationFailed, err)
	}
	if err := e.store.BatchMutate(ctx, docID, e.layout.ops(name)); err != nil {
		return "", storeErr("write segment layout", err)
	}

	e.log.Info("provisioned period segment", map[string]interface{}{
		"document": docID,
		"segment":  name,
	})
	return name, nil
}
