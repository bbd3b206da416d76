package detector

import (
	"BiteBot/internal/service/audio"
	"math/rand"
	"time"
)

// Rand источник случайности; *rand.Rand подходит. В тестах подменяется детерминированным.
type Rand interface {
	Int63n(n int64) int64
}

type globalRand struct{}

func (globalRand) Int63n(n int64) int64 { return rand.Int63n(n) }

// Policy порог поклёвки и диапазон случайной задержки перед подсечкой.
type Policy struct {
	Threshold float64
	DelayMin  time.Duration
	DelayMax  time.Duration
}

// Detector решает, была ли поклёвка, и выбирает задержку реакции.
type Detector struct {
	policy Policy
	rnd    Rand
}

// New создаёт детектор. rnd == nil — общий генератор math/rand.
func New(p Policy, rnd Rand) *Detector {
	if rnd == nil {
		rnd = globalRand{}
	}
	if p.DelayMax < p.DelayMin {
		p.DelayMax = p.DelayMin
	}
	return &Detector{policy: p, rnd: rnd}
}

// Detect возвращает задержку подсечки, если уровень строго выше порога.
// Неактивная сессия — не поклёвка.
func (d *Detector) Detect(s audio.Sample) (time.Duration, bool) {
	if !s.Active || s.Level <= d.policy.Threshold {
		return 0, false
	}
	return d.delay(), true
}

// delay выбирается равномерно из [DelayMin, DelayMax), чтобы реакция не была роботически постоянной.
func (d *Detector) delay() time.Duration {
	span := int64(d.policy.DelayMax - d.policy.DelayMin)
	if span <= 0 {
		return d.policy.DelayMin
	}
	return d.policy.DelayMin + time.Duration(d.rnd.Int63n(span))
}
