package train

import (
	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// Predict encodes the artifact's feature columns of t with the stored
// encoders and returns one decoded label per row. Extra columns, including
// the label itself, are ignored.
func (a *Artifact) Predict(t *table.Table) ([]string, error) {
	X, err := encodeRows(t, a.Features, a.Encoders)
	if err != nil {
		return nil, err
	}
	codes := a.Model.Predict(X)
	labels := make([]string, len(codes))
	enc := a.Encoders[a.Label]
	for i, c := range codes {
		if labels[i], err = enc.Decode(c); err != nil {
			return nil, err
		}
	}
	return labels, nil
}
