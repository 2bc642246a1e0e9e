package train

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/uday-t-s/car-brand-sales/internal/utils"
)

// ArtifactVersion is bumped when the on-disk layout changes.
const ArtifactVersion = 1

// Artifact is the persisted model together with the encoders it was
// trained with.
type Artifact struct {
	Version   int
	RunID     string
	TrainedAt time.Time
	Label     string
	// Features in model column order.
	Features []string
	// Encoders for the label and each categorical feature, keyed by column.
	Encoders map[string]*LabelEncoder
	Model    *Forest
}

// Encode writes the artifact as gob.
func (a *Artifact) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Save writes the artifact to path atomically.
func (a *Artifact) Save(path string) error {
	return utils.WriteFileWith(path, a.Encode)
}

// DecodeArtifact reads a gob artifact.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("artifact version %d not supported (want %d)", a.Version, ArtifactVersion)
	}
	if a.Model == nil || a.Encoders[a.Label] == nil {
		return nil, fmt.Errorf("artifact is missing its model or label encoder")
	}
	return &a, nil
}

// LoadArtifact reads the artifact stored at path.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return DecodeArtifact(f)
}
