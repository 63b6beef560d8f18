package launcher

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"sigs.k8s.io/yaml"
)

// 标签常量标识由本控制器创建的工作负载，清理与排障都依赖它们。
const (
	labelManagedBy = "nodelaunch.io/managing-controller"
	labelTaskID    = "nodelaunch.io/task-id"
	controllerName = "nodelaunch"
)

// BuildPodManifest 先解析补充文档，再叠加主路径字段，得到可提交的 Pod。
func BuildPodManifest(spec WorkloadSpec, overlayDoc string) (*corev1.Pod, error) {
	pod := &corev1.Pod{}
	if err := yaml.Unmarshal([]byte(overlayDoc), pod); err != nil {
		return nil, fmt.Errorf("parse workload overlay: %w", err)
	}

	pod.Namespace = spec.Namespace
	pod.Labels = mergeStringMaps(mergeStringMaps(pod.Labels, spec.Labels), map[string]string{
		labelManagedBy: controllerName,
		labelTaskID:    spec.TaskID,
	})
	if len(spec.Annotations) > 0 {
		pod.Annotations = mergeStringMaps(pod.Annotations, spec.Annotations)
	}

	pod.Spec.RestartPolicy = corev1.RestartPolicyNever
	if len(spec.NodeSelector) > 0 {
		pod.Spec.NodeSelector = mergeStringMaps(pod.Spec.NodeSelector, spec.NodeSelector)
	}
	pod.Spec.Tolerations = append(pod.Spec.Tolerations, spec.Tolerations...)
	if group, ok := spec.Security[keyFSGroup]; ok {
		if pod.Spec.SecurityContext == nil {
			pod.Spec.SecurityContext = &corev1.PodSecurityContext{}
		}
		pod.Spec.SecurityContext.FSGroup = &group
	}

	c := ensureContainer(&pod.Spec, containerName)
	c.Image = spec.Image
	if spec.ImagePullPolicy != "" {
		c.ImagePullPolicy = corev1.PullPolicy(spec.ImagePullPolicy)
	}
	// 命令经 Args 下发，镜像入口保持不变。
	c.Args = spec.Command
	for _, mount := range spec.Mounts {
		ensureVolumeMount(c, mount.Name, mount.MountPath, mount.ReadOnly)
	}

	reqs, err := buildResourceRequirements(spec.Resources)
	if err != nil {
		return nil, err
	}
	c.Resources = reqs

	return pod, nil
}

// buildResourceRequirements 在提交边界把资源字符串解析成 Quantity，非法值在此报错。
func buildResourceRequirements(res ResourceSpec) (corev1.ResourceRequirements, error) {
	var reqs corev1.ResourceRequirements

	assign := func(dst *corev1.ResourceList, key string, name corev1.ResourceName) error {
		raw, ok := res[key]
		if !ok {
			return nil
		}
		q, err := resource.ParseQuantity(raw)
		if err != nil {
			return fmt.Errorf("parse %s value %q: %w", key, raw, err)
		}
		if *dst == nil {
			*dst = corev1.ResourceList{}
		}
		(*dst)[name] = q
		return nil
	}

	for _, e := range []struct {
		dst  *corev1.ResourceList
		key  string
		name corev1.ResourceName
	}{
		{&reqs.Requests, keyRequestsCPU, corev1.ResourceCPU},
		{&reqs.Requests, keyRequestsMemory, corev1.ResourceMemory},
		{&reqs.Limits, keyLimitsCPU, corev1.ResourceCPU},
		{&reqs.Limits, keyLimitsMemory, corev1.ResourceMemory},
	} {
		if err := assign(e.dst, e.key, e.name); err != nil {
			return corev1.ResourceRequirements{}, err
		}
	}
	return reqs, nil
}

// ensureContainer 定位主容器，缺失时补建。
func ensureContainer(podSpec *corev1.PodSpec, name string) *corev1.Container {
	for i := range podSpec.Containers {
		if podSpec.Containers[i].Name == name {
			return &podSpec.Containers[i]
		}
	}
	podSpec.Containers = append(podSpec.Containers, corev1.Container{Name: name})
	return &podSpec.Containers[len(podSpec.Containers)-1]
}

// ensureVolumeMount 确保容器挂载指定卷并更新挂载属性。
func ensureVolumeMount(c *corev1.Container, name, mountPath string, readOnly bool) {
	for i := range c.VolumeMounts {
		if c.VolumeMounts[i].Name == name {
			c.VolumeMounts[i].MountPath = mountPath
			c.VolumeMounts[i].ReadOnly = readOnly
			return
		}
	}
	c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{
		Name:      name,
		MountPath: mountPath,
		ReadOnly:  readOnly,
	})
}

// mergeStringMaps 以覆盖方式合并，src 优先。
func mergeStringMaps(dst map[string]string, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
