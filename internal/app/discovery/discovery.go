package discovery

import (
	"BiteBot/internal/service/audio"
	"BiteBot/internal/service/procinfo"
	"BiteBot/internal/service/registry"
	"BiteBot/internal/service/stats"
	"BiteBot/internal/service/window"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Options задаёт правила отбора процессов игры.
type Options struct {
	SessionMatch string        // подстрока идентификатора аудиосессии
	ProcessMatch string        // подстрока имени исполняемого файла
	Interval     time.Duration // 0 — один проход
	NegativeTTL  time.Duration // сколько помнить процессы, для которых не нашлось окна
}

// Candidate описывает аудиосессию вместе с результатом отбора и поиска окна.
type Candidate struct {
	Session audio.Session
	Process string
	Matched bool
	Window  window.Handle
	Title   string
	Err     error
}

// Discoverer находит процессы игры по аудиосессиям и регистрирует их как цели.
// Цели никогда не удаляются отсюда.
type Discoverer struct {
	lister   audio.SessionLister
	resolver window.Resolver
	namer    procinfo.Namer
	reg      *registry.Registry
	opts     Options
	self     uint32
	negative *cache.Cache
	logger   *zap.SugaredLogger
}

func New(lister audio.SessionLister, resolver window.Resolver, namer procinfo.Namer, reg *registry.Registry, opts Options, logger *zap.SugaredLogger) *Discoverer {
	ttl := opts.NegativeTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Discoverer{
		lister:   lister,
		resolver: resolver,
		namer:    namer,
		reg:      reg,
		opts:     opts,
		self:     procinfo.Self(),
		negative: cache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

// Run выполняет первый проход сразу, затем повторяет его каждые Interval.
// Блокирующий метод; при Interval == 0 возвращается после первого прохода.
func (d *Discoverer) Run(ctx context.Context) error {
	if _, err := d.Scan(ctx); err != nil {
		return err
	}
	if d.opts.Interval <= 0 {
		return nil
	}

	t := time.NewTicker(d.opts.Interval)
	defer t.Stop()
	d.logger.Infow("Discovery started", "interval", d.opts.Interval.String())

	for {
		select {
		case <-ctx.Done():
			d.logger.Infow("Discovery stopped", "reason", context.Cause(ctx))
			return nil
		case <-t.C:
			if _, err := d.Scan(ctx); err != nil {
				return err
			}
		}
	}
}

// Scan регистрирует новые подходящие процессы. Возвращает число добавленных целей.
// Ошибка перечисления сессий означает недоступность аудиоисточника.
func (d *Discoverer) Scan(ctx context.Context) (int, error) {
	sessions, err := d.lister.Sessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("discovery: list sessions: %w", err)
	}

	added := 0
	for _, s := range sessions {
		if !d.eligible(s) || d.reg.Has(s.PID) || d.reg.Removed(s.PID) {
			continue
		}
		key := strconv.FormatUint(uint64(s.PID), 10)
		if _, failed := d.negative.Get(key); failed {
			continue
		}

		proc := d.processName(ctx, s.PID)
		if !Match(s, proc, d.opts) {
			continue
		}

		h, title, err := d.resolver.Resolve(s.PID)
		if err != nil {
			// Предупреждаем один раз за TTL, дальше процесс молча пропускается
			d.negative.SetDefault(key, err)
			d.logger.Warnw("Не найдено окно для процесса, пропускаю", "pid", s.PID, "process", proc, "error", err)
			continue
		}

		t := registry.Target{ID: s.PID, Window: h, DisplayName: displayName(title, proc, s.PID)}
		if err := d.reg.Insert(t, stats.Stats{}); err != nil {
			if errors.Is(err, registry.ErrExists) {
				continue
			}
			return added, err
		}
		added++
		d.logger.Infow("Target registered", "pid", t.ID, "name", t.DisplayName, "session", s.Identifier)
	}
	if added > 0 {
		d.logger.Infow("Discovery pass finished", "added", added, "tracked", d.reg.Len())
	}
	return added, nil
}

// Inspect перечисляет все сессии с результатом отбора, ничего не регистрируя.
func (d *Discoverer) Inspect(ctx context.Context) ([]Candidate, error) {
	sessions, err := d.lister.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery: list sessions: %w", err)
	}
	out := make([]Candidate, 0, len(sessions))
	for _, s := range sessions {
		c := Candidate{Session: s, Process: d.processName(ctx, s.PID)}
		c.Matched = d.eligible(s) && Match(s, c.Process, d.opts)
		if c.Matched {
			c.Window, c.Title, c.Err = d.resolver.Resolve(s.PID)
		}
		out = append(out, c)
	}
	return out, nil
}

// eligible пропускает только активные сессии чужих процессов.
func (d *Discoverer) eligible(s audio.Session) bool {
	return s.PID != 0 && s.PID != d.self && s.State == audio.SessionActive
}

func (d *Discoverer) processName(ctx context.Context, pid uint32) string {
	if d.namer == nil {
		return ""
	}
	name, err := d.namer.Name(ctx, pid)
	if err != nil {
		d.logger.Debugw("Process name unavailable", "pid", pid, "error", err)
		return ""
	}
	return name
}

// Match проверяет, совпадает ли сессия с правилами: по идентификатору сессии или по имени процесса.
func Match(s audio.Session, process string, opts Options) bool {
	return procinfo.Contains(s.Identifier, opts.SessionMatch) || procinfo.Contains(process, opts.ProcessMatch)
}

func displayName(title, process string, pid uint32) string {
	switch {
	case title != "":
		return title
	case process != "":
		return process
	}
	return fmt.Sprintf("pid %d", pid)
}
