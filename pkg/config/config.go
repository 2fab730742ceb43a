package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Chat   ChatConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// ChatConfig 聊天室相關的伺服器端設定
type ChatConfig struct {
	HistoryPageSize int // 加入聊天室時回傳的歷史訊息數量
	MaxFrameSize    int // WebSocket 單一訊框的大小上限（bytes）
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	// 聊天室設定的預設值
	viper.SetDefault("chat.historypagesize", 50)
	viper.SetDefault("chat.maxframesize", 4096)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
