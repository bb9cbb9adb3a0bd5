package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 可覆盖配置的环境变量
const (
	EnvAppName          = "FLOATRAND_APP_NAME"
	EnvSeed             = "FLOATRAND_SEED"
	EnvTickRate         = "FLOATRAND_TICK_RATE"
	EnvPollInterval     = "FLOATRAND_POLL_INTERVAL"
	EnvDefaultContainer = "FLOATRAND_DEFAULT_CONTAINER"
	EnvGroup            = "FLOATRAND_GROUP"
)

// LoadWithEnv 加载配置文件，再用环境变量覆盖
//
// 当前目录存在 .env 时先把其中的变量读入进程环境（已设置的变量保持不变）。
// 覆盖后的配置重新验证。
//
// 参数:
//   - path: 配置文件路径
//
// 返回:
//   - *Config: 配置
//   - error: 文件、环境变量或验证出错时返回错误
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] Warning: Failed to read .env: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config after env overrides: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 用 FLOATRAND_* 环境变量覆盖配置（不做验证）
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvAppName); ok && v != "" {
		c.AppName = v
	}
	if v, ok := os.LookupEnv(EnvDefaultContainer); ok {
		c.DefaultContainer = v
	}
	if v, ok := os.LookupEnv(EnvGroup); ok {
		c.Group = v
	}
	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvTickRate); ok && v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTickRate, err)
		}
		c.TickRate = rate
	}
	if v, ok := os.LookupEnv(EnvPollInterval); ok && v != "" {
		interval, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		c.PollInterval = interval
	}
	return nil
}
