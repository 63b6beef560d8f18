package launcher

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// 常量统一了容器名、卷名、资源键与各项默认值，确保构建与提交两侧一致。
const (
	containerName = "base"
	volumeName    = "storage"

	defaultPipeline       = "__default__"
	defaultMountPath      = "/home/kedro/data"
	defaultStartupSeconds = 600

	keyRequestsCPU    = "requests.cpu"
	keyRequestsMemory = "requests.memory"
	keyLimitsCPU      = "limits.cpu"
	keyLimitsMemory   = "limits.memory"
	keyFSGroup        = "fsGroup"
)

// BuildWorkloadSpec 把节点请求展开成可提交的完整工作负载描述。
func BuildWorkloadSpec(req NodeRequest) (WorkloadSpec, error) {
	if !req.VolumeDisabled && req.VolumeClaim == "" {
		return WorkloadSpec{}, fmt.Errorf("volume claim required when shared volume is enabled for task %q", req.TaskID)
	}

	pipeline := req.Pipeline
	if pipeline == "" {
		pipeline = defaultPipeline
	}
	mountPath := req.MountPath
	if mountPath == "" {
		mountPath = defaultMountPath
	}
	startup := req.StartupTimeoutSeconds
	if startup <= 0 {
		startup = defaultStartupSeconds
	}

	spec := WorkloadSpec{
		TaskID:          req.TaskID,
		Node:            req.Node,
		Namespace:       req.Namespace,
		Image:           req.Image,
		ImagePullPolicy: req.ImagePullPolicy,
		Command: []string{
			"kedro", "run",
			"-e", req.Environment,
			"--pipeline", pipeline,
			"--node", req.Node,
		},
		Resources:          buildResources(req),
		Security:           buildSecurityContext(req),
		StartupTimeout:     time.Duration(startup) * time.Second,
		NodeSelector:       req.NodeSelector,
		Labels:             req.Labels,
		Tolerations:        req.Tolerations,
		Annotations:        req.Annotations,
		DeleteOnCompletion: true,
		Overlay: OverlaySpec{
			TaskID:   req.TaskID,
			Tracking: !req.TrackingDisabled,
			Volume:   !req.VolumeDisabled,
			Claim:    req.VolumeClaim,
		},
	}
	if !req.VolumeDisabled {
		spec.Mounts = []corev1.VolumeMount{{Name: volumeName, MountPath: mountPath}}
	}
	return spec, nil
}

// buildResources 只收录显式给出的资源值，缺省键一律不出现。
func buildResources(req NodeRequest) ResourceSpec {
	res := ResourceSpec{}
	set := func(key, value string) {
		if value != "" {
			res[key] = value
		}
	}
	set(keyRequestsCPU, req.RequestsCPU)
	set(keyRequestsMemory, req.RequestsMemory)
	set(keyLimitsCPU, req.LimitsCPU)
	set(keyLimitsMemory, req.LimitsMemory)
	return res
}

// buildSecurityContext 仅在启用共享卷时携带 fsGroup。
func buildSecurityContext(req NodeRequest) SecurityContext {
	if req.VolumeDisabled {
		return SecurityContext{}
	}
	return SecurityContext{keyFSGroup: req.VolumeOwner}
}
