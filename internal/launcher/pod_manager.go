package launcher

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// pollInterval 是状态轮询的统一间隔。
const pollInterval = 3 * time.Second

// PodManager 负责与 Kubernetes API 交互，贯穿工作负载创建、监控与清理。
type PodManager struct {
	client    kubernetes.Interface
	namespace string
	log       Logger
}

// NewPodManager 优先使用集群内配置，失败时回退到本地 kubeconfig。
func NewPodManager(namespace string, log Logger) (*PodManager, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		cfg, err = clientcmd.BuildConfigFromFlags("", clientcmd.RecommendedHomeFile)
		if err != nil {
			return nil, fmt.Errorf("build kube config: %w", err)
		}
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	return NewPodManagerWithClient(cs, namespace, log), nil
}

// NewPodManagerWithClient 接受现成的客户端，测试与自定义接线走这里。
func NewPodManagerWithClient(client kubernetes.Interface, namespace string, log Logger) *PodManager {
	return &PodManager{
		client:    client,
		namespace: namespace,
		log:       defaultLogger(log),
	}
}

// Submit 把补充文档与工作负载描述合成 Pod 并创建，返回最终名称。
func (m *PodManager) Submit(ctx context.Context, spec WorkloadSpec, overlayDoc string) (string, error) {
	pod, err := BuildPodManifest(spec, overlayDoc)
	if err != nil {
		m.log.Errorf("task %s: build pod manifest failed: %v", spec.TaskID, err)
		return "", fmt.Errorf("build pod manifest: %w", err)
	}

	created, err := m.client.CoreV1().Pods(m.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		m.log.Errorf("task %s: create pod %s failed: %v", spec.TaskID, pod.Name, err)
		return "", fmt.Errorf("create pod: %w", err)
	}

	m.log.Infof("task %s: pod %s created successfully", spec.TaskID, created.Name)
	return created.Name, nil
}

// AwaitStart 在启动期限内轮询，Pod 离开 Pending 即视为启动成功。
func (m *PodManager) AwaitStart(ctx context.Context, name string, timeout time.Duration) error {
	m.log.Infof("waiting for pod %s to start (timeout %s)", name, timeout)
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := wait.PollUntilContextCancel(waitCtx, pollInterval, true, func(ctx context.Context) (bool, error) {
		pod, err := m.client.CoreV1().Pods(m.namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return pod.Status.Phase != corev1.PodPending && pod.Status.Phase != "", nil
	})
	if err != nil {
		m.log.Warnf("pod %s did not start in time: %v", name, err)
		return fmt.Errorf("pod %s did not start within %s: %w", name, timeout, err)
	}

	m.log.Infof("pod %s started", name)
	return nil
}

// AwaitCompletion 轮询 Pod 直到成功、失败或上下文被取消。
func (m *PodManager) AwaitCompletion(ctx context.Context, name string) (*corev1.Pod, error) {
	m.log.Infof("waiting for pod %s to complete", name)
	err := wait.PollUntilContextCancel(ctx, pollInterval, true, func(ctx context.Context) (bool, error) {
		pod, err := m.client.CoreV1().Pods(m.namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed, nil
	})
	if err != nil {
		m.log.Warnf("wait pod %s interrupted: %v", name, err)
		return nil, err
	}

	pod, err := m.client.CoreV1().Pods(m.namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		m.log.Infof("pod %s finished (phase=%s)", name, pod.Status.Phase)
	}
	return pod, err
}

// FetchLogs 拉取主容器日志，供结果汇报与排障使用。
func (m *PodManager) FetchLogs(ctx context.Context, name string) (string, error) {
	req := m.client.CoreV1().Pods(m.namespace).GetLogs(name, &corev1.PodLogOptions{Container: containerName})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var builder strings.Builder
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		builder.WriteString(scanner.Text())
		builder.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Delete 以后台级联方式删除 Pod，避免资源残留。
func (m *PodManager) Delete(ctx context.Context, name string) {
	m.log.Infof("cleaning up pod %s", name)
	propagation := metav1.DeletePropagationBackground
	if err := m.client.CoreV1().Pods(m.namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &propagation}); err != nil {
		m.log.Warnf("delete pod %s: %v", name, err)
		return
	}
	m.log.Infof("pod %s deleted", name)
}
