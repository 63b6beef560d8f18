package launcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
)

// Config 描述一次节点执行所需的全部运行配置。
type Config struct {
	Namespace       string             `yaml:"namespace"`
	Image           string             `yaml:"image"`
	ImagePullPolicy string             `yaml:"imagePullPolicy"`
	Environment     string             `yaml:"environment"`
	Pipeline        string             `yaml:"pipeline"`
	StartupTimeout  int                `yaml:"startupTimeout"`
	Volume          VolumeConfig       `yaml:"volume"`
	Tracking        TrackingConfig     `yaml:"tracking"`
	Resources       ResourcesConfig    `yaml:"resources"`
	NodeSelector    map[string]string  `yaml:"nodeSelector"`
	Labels          map[string]string  `yaml:"labels"`
	Tolerations     []TolerationConfig `yaml:"tolerations"`
	Annotations     map[string]string  `yaml:"annotations"`
	ValueStore      ValueStoreConfig   `yaml:"valueStore"`
}

// VolumeConfig 控制共享数据卷的挂载行为。
type VolumeConfig struct {
	Disabled  bool   `yaml:"disabled"`
	Claim     string `yaml:"claim"`
	Owner     int64  `yaml:"owner"`
	MountPath string `yaml:"mountPath"`
}

// TrackingConfig 控制实验追踪上下文的注入。
type TrackingConfig struct {
	Disabled bool `yaml:"disabled"`
}

// ResourcesConfig 定义默认资源档与按节点覆盖档。
type ResourcesConfig struct {
	Default ResourceValues            `yaml:"default"`
	Nodes   map[string]ResourceValues `yaml:"nodes"`
}

// ResourceValues 对应一个节点档位的请求与上限。
type ResourceValues struct {
	Requests ResourcePair `yaml:"requests"`
	Limits   ResourcePair `yaml:"limits"`
}

// ResourcePair 按原样保存数值文本，解析推迟到提交边界。
type ResourcePair struct {
	CPU    string `yaml:"cpu"`
	Memory string `yaml:"memory"`
}

// TolerationConfig 是容忍度的配置镜像，避免直接依赖 API 结构的序列化标签。
type TolerationConfig struct {
	Key               string `yaml:"key"`
	Operator          string `yaml:"operator"`
	Value             string `yaml:"value"`
	Effect            string `yaml:"effect"`
	TolerationSeconds *int64 `yaml:"tolerationSeconds"`
}

// ValueStoreConfig 指定运行期上下文值的来源。
type ValueStoreConfig struct {
	Endpoint string            `yaml:"endpoint"`
	File     string            `yaml:"file"`
	Values   map[string]string `yaml:"values"`
}

// LoadConfig 读取 YAML 配置文件，path 为空时仅返回默认值。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults 为缺失的配置填充默认值。
func (c *Config) applyDefaults() {
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	if c.ImagePullPolicy == "" {
		c.ImagePullPolicy = "IfNotPresent"
	}
	if c.Pipeline == "" {
		c.Pipeline = defaultPipeline
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = defaultStartupSeconds
	}
	if c.Volume.MountPath == "" {
		c.Volume.MountPath = defaultMountPath
	}
}

// RequestForNode 把配置与节点名组装成执行请求，taskID 为空时沿用节点名。
func (c Config) RequestForNode(node, taskID string) NodeRequest {
	if taskID == "" {
		taskID = node
	}
	rv := c.Resources.forNode(node)
	return NodeRequest{
		TaskID:                taskID,
		Node:                  node,
		Namespace:             c.Namespace,
		Environment:           c.Environment,
		Pipeline:              c.Pipeline,
		Image:                 c.Image,
		ImagePullPolicy:       c.ImagePullPolicy,
		RequestsCPU:           rv.Requests.CPU,
		RequestsMemory:        rv.Requests.Memory,
		LimitsCPU:             rv.Limits.CPU,
		LimitsMemory:          rv.Limits.Memory,
		VolumeDisabled:        c.Volume.Disabled,
		VolumeClaim:           c.Volume.Claim,
		VolumeOwner:           c.Volume.Owner,
		MountPath:             c.Volume.MountPath,
		TrackingDisabled:      c.Tracking.Disabled,
		StartupTimeoutSeconds: c.StartupTimeout,
		NodeSelector:          c.NodeSelector,
		Labels:                c.Labels,
		Tolerations:           c.tolerations(),
		Annotations:           c.Annotations,
	}
}

// forNode 返回节点专属档位，没有时退回默认档。
func (r ResourcesConfig) forNode(node string) ResourceValues {
	if rv, ok := r.Nodes[node]; ok {
		return rv
	}
	return r.Default
}

// tolerations 把配置镜像转换成 API 结构。
func (c Config) tolerations() []corev1.Toleration {
	if len(c.Tolerations) == 0 {
		return nil
	}
	out := make([]corev1.Toleration, 0, len(c.Tolerations))
	for _, t := range c.Tolerations {
		out = append(out, corev1.Toleration{
			Key:               t.Key,
			Operator:          corev1.TolerationOperator(t.Operator),
			Value:             t.Value,
			Effect:            corev1.TaintEffect(t.Effect),
			TolerationSeconds: t.TolerationSeconds,
		})
	}
	return out
}
