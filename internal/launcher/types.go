package launcher

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// NodeRequest 描述一次流水线节点的执行请求。
type NodeRequest struct {
	TaskID                string
	Node                  string
	Namespace             string
	Environment           string
	Pipeline              string
	Image                 string
	ImagePullPolicy       string
	RequestsCPU           string
	RequestsMemory        string
	LimitsCPU             string
	LimitsMemory          string
	VolumeDisabled        bool
	VolumeClaim           string
	VolumeOwner           int64
	MountPath             string
	TrackingDisabled      bool
	StartupTimeoutSeconds int
	NodeSelector          map[string]string
	Labels                map[string]string
	Tolerations           []corev1.Toleration
	Annotations           map[string]string
}

// ResourceSpec 仅收录显式配置的资源值，键为 requests.cpu 等规范名。
type ResourceSpec map[string]string

// SecurityContext 收录 Pod 级安全字段，目前仅 fsGroup。
type SecurityContext map[string]int64

// WorkloadSpec 是可直接提交的完整工作负载描述。
type WorkloadSpec struct {
	TaskID             string
	Node               string
	Namespace          string
	Image              string
	ImagePullPolicy    string
	Command            []string
	Mounts             []corev1.VolumeMount
	Resources          ResourceSpec
	Security           SecurityContext
	StartupTimeout     time.Duration
	NodeSelector       map[string]string
	Labels             map[string]string
	Tolerations        []corev1.Toleration
	Annotations        map[string]string
	DeleteOnCompletion bool
	Overlay            OverlaySpec
}

// RunResult 描述一次节点执行的最终结果。
type RunResult struct {
	TaskID       string
	Node         string
	WorkloadName string
	Success      bool
	Phase        string
	Message      string
	Logs         string
	FinishedAt   time.Time
	Error        error
}

// Orchestrator 抽象工作负载的提交与生命周期管理。
type Orchestrator interface {
	Submit(ctx context.Context, spec WorkloadSpec, overlayDoc string) (string, error)
	AwaitStart(ctx context.Context, name string, timeout time.Duration) error
	AwaitCompletion(ctx context.Context, name string) (*corev1.Pod, error)
	FetchLogs(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, name string)
}

// ValueStore 抽象运行期上下文值的读取。
type ValueStore interface {
	Pull(ctx context.Context, key string) (string, error)
}

// Logger 提供基础日志输出。
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
