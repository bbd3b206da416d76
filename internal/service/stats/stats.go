package stats

import "time"

// Stats накопительная статистика одной цели: забросы, подсечки и среднее время от заброса до подсечки.
type Stats struct {
	CastCount       uint64        `json:"castCount"`
	ReactCount      uint64        `json:"reactCount"`
	ReactionAverage time.Duration `json:"reactionAverage"`

	// среднее в наносекундах без округления до целого, чтобы ошибка не копилась от шага к шагу
	mean float64
}

// WithCast возвращает копию с увеличенным счётчиком забросов.
func (s Stats) WithCast() Stats {
	s.CastCount++
	return s
}

// WithReaction добавляет одно наблюдение длительности в скользящее среднее.
// newAvg = (oldAvg*n + d) / (n+1), где n — счётчик до инкремента. История длительностей не хранится.
func (s Stats) WithReaction(d time.Duration) Stats {
	n := float64(s.ReactCount)
	s.mean = (s.mean*n + float64(d)) / (n + 1)
	s.ReactCount++
	s.ReactionAverage = time.Duration(s.mean)
	return s
}

// Mean возвращает среднее время реакции в секундах без потери точности.
func (s Stats) Mean() float64 { return s.mean / float64(time.Second) }
