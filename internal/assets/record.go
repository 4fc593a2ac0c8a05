package assets

import (
	"fmt"
	"time"

	"airtracker/panel/internal/imaging"
)

// Kind names one of the two asset slots.
type Kind int

const (
	KindLogo Kind = iota
	KindPhoto
)

// Kinds lists every slot in render order.
var Kinds = []Kind{KindLogo, KindPhoto}

func (k Kind) String() string {
	switch k {
	case KindLogo:
		return "logo"
	case KindPhoto:
		return "photo"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in status output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for _, kind := range Kinds {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown asset kind %q", b)
}

// Spec bounds one slot: the largest body accepted and the box the image is decoded into.
type Spec struct {
	MaxBytes   int
	MaxW, MaxH int
}

// DefaultSpecs match the panel layout.
var DefaultSpecs = map[Kind]Spec{
	KindLogo:  {MaxBytes: 180 * 1024, MaxW: 64, MaxH: 64},
	KindPhoto: {MaxBytes: 220 * 1024, MaxW: 80, MaxH: 64},
}

// Record is the state of one asset slot.
//
// Image is only valid to draw when Renderable reports true. A failed fetch leaves
// Image and both URLs as they were, so a stale image keeps being shown.
type Record struct {
	Kind      Kind            `json:"kind"`
	RemoteURL string          `json:"remote_url"`
	CachedURL string          `json:"cached_url"`
	Image     *imaging.Buffer `json:"-"`
	Format    string          `json:"format,omitempty"`
	SrcW      int             `json:"src_width,omitempty"`
	SrcH      int             `json:"src_height,omitempty"`
	Scale     int             `json:"scale,omitempty"`
	Bytes     int             `json:"bytes,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`

	// Last failed attempt, kept for the status endpoint.
	LastURL   string `json:"last_attempted_url,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Failures  int    `json:"failures"`
}

// Renderable reports whether Image belongs to the URL currently referenced.
func (r Record) Renderable() bool {
	return r.Image != nil && r.CachedURL != "" && r.CachedURL == r.RemoteURL
}

// Outcome is the result of Manager.Ensure.
type Outcome int

const (
	Unchanged Outcome = iota
	Fetched
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}
