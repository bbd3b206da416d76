package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	DebugMode       bool    `env:"DEBUG_MODE"`        //Режим дебага
	DebugLevelFloor float64 `env:"DEBUG_LEVEL_FLOOR"` // В дебаге логировать уровень громкости не ниже этого значения
	AlertSoundPath  string  `env:"ALERT_SOUND_PATH"`  // Звук при аварийной остановке (mp3|wav); пусто — без звука

	Engine    EngineConfig
	Inject    InjectConfig
	Discovery DiscoveryConfig
	Control   ControlConfig
	MQTT      MQTTConfig
}

// EngineConfig задаёт тайминги цикла и порог поклёвки.
type EngineConfig struct {
	PollInterval    time.Duration `env:"POLL_INTERVAL"`    // Период тика
	ReelCooldown    time.Duration `env:"REEL_COOLDOWN"`    // Пауза после подсечки
	NoBiteTimeout   time.Duration `env:"NO_BITE_TIMEOUT"`  // Перезаброс, если поклёвки нет дольше
	CastSuppression time.Duration `env:"CAST_SUPPRESSION"` // Сколько игнорировать звук после заброса
	BiteThreshold   float64       `env:"BITE_THRESHOLD"`   // Порог пикового уровня, (0,1]
	ReactDelayMin   time.Duration `env:"REACT_DELAY_MIN"`  // Нижняя граница задержки подсечки
	ReactDelayMax   time.Duration `env:"REACT_DELAY_MAX"`  // Верхняя граница (не включительно)
}

// InjectConfig описывает, как нажимается клавиша действия.
type InjectConfig struct {
	PreDelayMin time.Duration `env:"INJECT_PRE_DELAY_MIN"`
	PreDelayMax time.Duration `env:"INJECT_PRE_DELAY_MAX"`
	Hold        time.Duration `env:"INJECT_HOLD"`   // Между нажатием и отпусканием
	Key         string        `env:"INJECT_KEY"`    // F1..F12, SPACE, 0-9, A-Z
	Method      string        `env:"INJECT_METHOD"` // post|global
	Async       bool          `env:"INJECT_ASYNC"`  // Нажатие вне потока решений
}

// DiscoveryConfig конфигурация поиска процессов игры по аудиосессиям.
type DiscoveryConfig struct {
	SessionMatch string        `env:"SESSION_MATCH"`          // Подстрока идентификатора сессии
	ProcessMatch string        `env:"PROCESS_MATCH"`          // Подстрока имени исполняемого файла; пусто — не проверять
	Interval     time.Duration `env:"DISCOVERY_INTERVAL"`     // 0 — один проход при старте
	NegativeTTL  time.Duration `env:"DISCOVERY_NEGATIVE_TTL"` // Сколько помнить процессы без окна
}

// ControlConfig конфигурация HTTP API управления.
type ControlConfig struct {
	Enabled  bool   `env:"CONTROL_ENABLED"`
	BindAddr string `env:"CONTROL_BIND_ADDR"` // напр. 127.0.0.1:8765
}

// MQTTConfig конфигурация публикации событий в брокер. Пустой Broker выключает публикацию.
type MQTTConfig struct {
	Broker   string `env:"MQTT_BROKER"` // напр. tcp://127.0.0.1:1883
	Topic    string `env:"MQTT_TOPIC"`
	ClientID string `env:"MQTT_CLIENT_ID"`
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:       false,
		DebugLevelFloor: 0.01,
		AlertSoundPath:  "sound/alert.mp3",
		Engine: EngineConfig{
			PollInterval:    50 * time.Millisecond,
			ReelCooldown:    time.Second,
			NoBiteTimeout:   30 * time.Second,
			CastSuppression: 5 * time.Second,
			BiteThreshold:   0.035,
			ReactDelayMin:   100 * time.Millisecond,
			ReactDelayMax:   500 * time.Millisecond,
		},
		Inject: InjectConfig{
			PreDelayMin: 100 * time.Millisecond,
			PreDelayMax: 200 * time.Millisecond,
			Hold:        10 * time.Millisecond,
			Key:         "F8",
			Method:      "post",
			Async:       false, // как в исходной программе: нажатие блокирует весь тик
		},
		Discovery: DiscoveryConfig{
			SessionMatch: "warcraft",
			NegativeTTL:  time.Minute,
		},
		Control: ControlConfig{
			Enabled:  true,
			BindAddr: "127.0.0.1:8765",
		},
		MQTT: MQTTConfig{
			Topic:    "bitebot",
			ClientID: "bitebot",
		},
	}
}

// Load собирает конфигурацию: дефолты, затем .env и окружение.
// Флаги CLI накладываются позже через BindFlags, после них вызывается Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// BindFlags регистрирует флаги поверх уже загруженных значений.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (уровень громкости в лог)")
	fs.Float64Var(&cfg.DebugLevelFloor, "debug-level-floor", cfg.DebugLevelFloor, "в дебаге логировать уровень не ниже этого значения")
	fs.StringVar(&cfg.AlertSoundPath, "alert-sound-path", cfg.AlertSoundPath, "звук при аварийной остановке (mp3 или wav), пусто — без звука")

	// Цикл
	fs.DurationVar(&cfg.Engine.PollInterval, "poll-interval", cfg.Engine.PollInterval, "период тика, напр. 50ms")
	fs.DurationVar(&cfg.Engine.ReelCooldown, "reel-cooldown", cfg.Engine.ReelCooldown, "пауза после подсечки перед забросом")
	fs.DurationVar(&cfg.Engine.NoBiteTimeout, "no-bite-timeout", cfg.Engine.NoBiteTimeout, "перезаброс, если нет поклёвки дольше")
	fs.DurationVar(&cfg.Engine.CastSuppression, "cast-suppression", cfg.Engine.CastSuppression, "сколько игнорировать звук после заброса")
	fs.Float64Var(&cfg.Engine.BiteThreshold, "bite-threshold", cfg.Engine.BiteThreshold, "порог пикового уровня для поклёвки (0,1]")
	fs.DurationVar(&cfg.Engine.ReactDelayMin, "react-delay-min", cfg.Engine.ReactDelayMin, "минимальная задержка подсечки")
	fs.DurationVar(&cfg.Engine.ReactDelayMax, "react-delay-max", cfg.Engine.ReactDelayMax, "максимальная задержка подсечки (не включительно)")

	// Нажатие
	fs.DurationVar(&cfg.Inject.PreDelayMin, "inject-pre-delay-min", cfg.Inject.PreDelayMin, "минимальная пауза перед нажатием")
	fs.DurationVar(&cfg.Inject.PreDelayMax, "inject-pre-delay-max", cfg.Inject.PreDelayMax, "максимальная пауза перед нажатием")
	fs.DurationVar(&cfg.Inject.Hold, "inject-hold", cfg.Inject.Hold, "удержание клавиши")
	fs.StringVar(&cfg.Inject.Key, "inject-key", cfg.Inject.Key, "клавиша действия: F1..F12|SPACE|0-9|A-Z")
	fs.StringVar(&cfg.Inject.Method, "inject-method", cfg.Inject.Method, "способ нажатия: post (в окно, фоном) | global (в активное окно)")
	fs.BoolVar(&cfg.Inject.Async, "inject-async", cfg.Inject.Async, "нажимать вне потока решений, не блокируя другие цели")

	// Discovery
	fs.StringVar(&cfg.Discovery.SessionMatch, "session-match", cfg.Discovery.SessionMatch, "подстрока идентификатора аудиосессии игры")
	fs.StringVar(&cfg.Discovery.ProcessMatch, "process-match", cfg.Discovery.ProcessMatch, "подстрока имени процесса игры (опционально)")
	fs.DurationVar(&cfg.Discovery.Interval, "discovery-interval", cfg.Discovery.Interval, "период повторного поиска, 0 — один раз при старте")
	fs.DurationVar(&cfg.Discovery.NegativeTTL, "discovery-negative-ttl", cfg.Discovery.NegativeTTL, "сколько помнить процессы без окна")

	// Control API
	fs.BoolVar(&cfg.Control.Enabled, "control-enabled", cfg.Control.Enabled, "включить HTTP API управления")
	fs.StringVar(&cfg.Control.BindAddr, "control-bind-addr", cfg.Control.BindAddr, "адрес HTTP API (напр. 127.0.0.1:8765)")

	// MQTT
	fs.StringVar(&cfg.MQTT.Broker, "mqtt-broker", cfg.MQTT.Broker, "адрес MQTT брокера, пусто — не публиковать")
	fs.StringVar(&cfg.MQTT.Topic, "mqtt-topic", cfg.MQTT.Topic, "корневой топик событий")
	fs.StringVar(&cfg.MQTT.ClientID, "mqtt-client-id", cfg.MQTT.ClientID, "client id MQTT")
}

// Validate проверяет итоговую конфигурацию. Возвращает все найденные ошибки сразу.
func (c *Config) Validate() error {
	var errs []error
	e := c.Engine
	if e.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", e.PollInterval))
	}
	if e.BiteThreshold <= 0 || e.BiteThreshold > 1 {
		errs = append(errs, fmt.Errorf("bite threshold must be in (0,1], got %v", e.BiteThreshold))
	}
	if e.ReactDelayMin < 0 || e.ReactDelayMin > e.ReactDelayMax {
		errs = append(errs, fmt.Errorf("react delay range invalid: %s..%s", e.ReactDelayMin, e.ReactDelayMax))
	}
	if e.ReelCooldown < 0 || e.NoBiteTimeout < 0 || e.CastSuppression < 0 {
		errs = append(errs, errors.New("engine timeouts must not be negative"))
	}

	i := c.Inject
	if i.PreDelayMin < 0 || i.PreDelayMin > i.PreDelayMax {
		errs = append(errs, fmt.Errorf("inject pre-delay range invalid: %s..%s", i.PreDelayMin, i.PreDelayMax))
	}
	if i.Hold < 0 {
		errs = append(errs, fmt.Errorf("inject hold must not be negative, got %s", i.Hold))
	}
	switch strings.ToLower(strings.TrimSpace(i.Method)) {
	case "post", "global":
	default:
		errs = append(errs, fmt.Errorf("unknown inject method %q (post|global)", i.Method))
	}
	if strings.TrimSpace(i.Key) == "" {
		errs = append(errs, errors.New("inject key is empty"))
	}

	if strings.TrimSpace(c.Discovery.SessionMatch) == "" && strings.TrimSpace(c.Discovery.ProcessMatch) == "" {
		errs = append(errs, errors.New("either session match or process match must be set"))
	}
	if c.Discovery.Interval < 0 {
		errs = append(errs, fmt.Errorf("discovery interval must not be negative, got %s", c.Discovery.Interval))
	}
	if c.Control.Enabled && strings.TrimSpace(c.Control.BindAddr) == "" {
		errs = append(errs, errors.New("control bind addr is empty"))
	}
	if c.MQTT.Broker != "" && strings.TrimSpace(c.MQTT.Topic) == "" {
		errs = append(errs, errors.New("mqtt topic is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
