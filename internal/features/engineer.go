package features

import (
	"github.com/cvalentine99/vpnflow/internal/dataset"
	"github.com/cvalentine99/vpnflow/internal/logging"
	"github.com/cvalentine99/vpnflow/internal/summary"
)

// Inputs names every file the feature engineering stage touches.
type Inputs struct {
	Flows      string
	Temporal   string
	Size       string
	TLS        string
	Reputation string
	Output     string

	// BoundsManifest, when set, switches normalization from batch-relative
	// bounds to the bounds recorded in a prior run's output manifest.
	BoundsManifest string
}

// Engineer runs the whole stage in one pass: load the flow table, load the
// four summaries, merge, normalize, write the ML-ready table plus its
// manifest. Every failure is fatal; nothing is written unless all
// transformations succeed.
func Engineer(in Inputs) (*dataset.Manifest, error) {
	log := logging.FeatureLogger()
	defer logging.Timer(log, "feature engineering")()

	flows, err := dataset.Load(in.Flows)
	if err != nil {
		return nil, err
	}
	log.Info("loaded flow table", logging.Dataset(in.Flows, flows.NumRows(), flows.NumColumns()))

	temporal, err := summary.Load(in.Temporal)
	if err != nil {
		return nil, err
	}
	size, err := summary.Load(in.Size)
	if err != nil {
		return nil, err
	}
	tls, err := summary.Load(in.TLS)
	if err != nil {
		return nil, err
	}
	reputation, err := summary.Load(in.Reputation)
	if err != nil {
		return nil, err
	}

	if err := Merge(flows, Summaries{
		Temporal:   temporal,
		Size:       size,
		TLS:        tls,
		Reputation: reputation,
	}); err != nil {
		return nil, err
	}

	var bounds map[string]dataset.Bounds
	if in.BoundsManifest != "" {
		prior, err := dataset.LoadManifest(in.BoundsManifest)
		if err != nil {
			return nil, err
		}
		if err := NormalizeWithBounds(flows, prior.Bounds); err != nil {
			return nil, err
		}
		bounds = prior.Bounds
		log.Info("normalized with prior bounds", "manifest", in.BoundsManifest)
	} else {
		if bounds, err = Normalize(flows); err != nil {
			return nil, err
		}
	}

	if err := dataset.Write(flows, in.Output); err != nil {
		return nil, err
	}
	manifest, err := dataset.WriteManifest(flows, in.Output, bounds)
	if err != nil {
		return nil, err
	}

	log.Info("feature engineering complete",
		"output", in.Output,
		logging.Count("rows", int64(flows.NumRows())),
		logging.Count("columns", int64(flows.NumColumns())),
	)
	return manifest, nil
}
