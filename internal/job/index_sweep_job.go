package job

import (
	"context"
	"time"

	"github.com/senseops/diagd/internal/vectorindex"
)

// IndexSweepJob removes staging directories left behind by index builds
// that crashed between write and rename.
type IndexSweepJob struct {
	store         *vectorindex.Store
	tmpMaxAgeMins int
}

func NewIndexSweepJob(store *vectorindex.Store, tmpMaxAgeMins int) *IndexSweepJob {
	return &IndexSweepJob{store: store, tmpMaxAgeMins: tmpMaxAgeMins}
}

func (j *IndexSweepJob) Name() string {
	return "index_tmp_sweep"
}

func (j *IndexSweepJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	maxAge := j.tmpMaxAgeMins
	if maxAge <= 0 {
		maxAge = 60
	}
	_, err := j.store.SweepTmp(ctx, time.Duration(maxAge)*time.Minute)
	return err
}
