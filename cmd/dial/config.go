package main

import (
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig 配置文件内容，所有字段都可以被命令行参数覆盖
type fileConfig struct {
	Client struct {
		Address string   `toml:"address"`
		Timeout duration `toml:"timeout"`
	} `toml:"client"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
