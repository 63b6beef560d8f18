package valuestore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nodelaunch/internal/launcher"
)

// StaticStore 基于内存映射提供上下文值，适合本地运行与测试。
type StaticStore struct {
	values map[string]string
	log    launcher.Logger
}

// NewStaticStore 创建静态值存储。
func NewStaticStore(values map[string]string, log launcher.Logger) *StaticStore {
	return &StaticStore{
		values: values,
		log:    log,
	}
}

// Pull 从内存映射读取值，键不存在时报错。
func (s *StaticStore) Pull(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("value %q not found", key)
	}
	s.log.Infof("resolved value for key %s from static store", key)
	return value, nil
}

// LoadValueFile 读取 key: value 形式的 YAML 文件作为静态值来源。
func LoadValueFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read value file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshal value file %s: %w", path, err)
	}
	return values, nil
}
