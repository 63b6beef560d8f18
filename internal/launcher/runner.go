package launcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// deferredPullPattern 匹配补充文档中的延迟取值表达式，捕获组为键名。
var deferredPullPattern = regexp.MustCompile(`\{\{\s*task_instance\.xcom_pull\(key="([^"]*)"\)\s*\}\}`)

// Runner 负责串联文档渲染、上下文取值以及 Kubernetes 调度。
type Runner struct {
	orch  Orchestrator
	store ValueStore
	log   Logger
}

// NewRunner 使用外部依赖构建执行器实例，store 允许为空。
func NewRunner(orch Orchestrator, store ValueStore, log Logger) (*Runner, error) {
	if orch == nil {
		return nil, errors.New("orchestrator required")
	}
	return &Runner{
		orch:  orch,
		store: store,
		log:   defaultLogger(log),
	}, nil
}

// Run 负责单个节点工作负载的完整生命周期，从渲染提交到清理汇报。
func (r *Runner) Run(parent context.Context, spec WorkloadSpec) RunResult {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	r.log.Infof("running node %q (task %s)", spec.Node, spec.TaskID)

	overlayDoc, err := spec.Overlay.Render()
	if err != nil {
		return r.failure(spec, err)
	}
	overlayDoc = r.resolveDeferred(ctx, overlayDoc)

	name, err := r.orch.Submit(ctx, spec, overlayDoc)
	if err != nil {
		return r.failure(spec, fmt.Errorf("submit workload: %w", err))
	}

	if spec.DeleteOnCompletion {
		defer r.orch.Delete(context.Background(), name)
	}

	if err := r.orch.AwaitStart(ctx, name, spec.StartupTimeout); err != nil {
		res := r.failure(spec, fmt.Errorf("await start: %w", err))
		res.WorkloadName = name
		return res
	}

	pod, err := r.orch.AwaitCompletion(ctx, name)
	if err != nil {
		res := r.failure(spec, fmt.Errorf("await completion: %w", err))
		res.WorkloadName = name
		return res
	}

	logs, err := r.orch.FetchLogs(ctx, name)
	if err != nil {
		r.log.Warnf("fetch logs %s: %v", name, err)
	}

	result := RunResult{
		TaskID:       spec.TaskID,
		Node:         spec.Node,
		WorkloadName: name,
		Success:      pod.Status.Phase == corev1.PodSucceeded,
		Phase:        string(pod.Status.Phase),
		Logs:         logs,
		FinishedAt:   time.Now(),
	}
	if !result.Success {
		result.Message = terminationMessage(pod)
		result.Error = fmt.Errorf("workload %s failed: %s", name, result.Message)
	}
	return result
}

// failure 统一组装失败结果并记录错误日志。
func (r *Runner) failure(spec WorkloadSpec, err error) RunResult {
	r.log.Errorf("node %q (task %s): %v", spec.Node, spec.TaskID, err)
	return RunResult{
		TaskID:     spec.TaskID,
		Node:       spec.Node,
		Success:    false,
		Error:      err,
		FinishedAt: time.Now(),
	}
}

// resolveDeferred 把延迟取值表达式替换成实际值，取不到时降级为空串。
func (r *Runner) resolveDeferred(ctx context.Context, doc string) string {
	return deferredPullPattern.ReplaceAllStringFunc(doc, func(expr string) string {
		key := deferredPullPattern.FindStringSubmatch(expr)[1]
		if r.store == nil {
			r.log.Warnf("no value store configured, key %q resolves to empty", key)
			return ""
		}
		value, err := r.store.Pull(ctx, key)
		if err != nil {
			r.log.Warnf("pull value %q: %v", key, err)
			return ""
		}
		return value
	})
}

// terminationMessage 优先取主容器的终止信息，缺失时退回 Pod 阶段描述。
func terminationMessage(pod *corev1.Pod) string {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Name != containerName || cs.State.Terminated == nil {
			continue
		}
		t := cs.State.Terminated
		if t.Message != "" {
			return fmt.Sprintf("container exited with code %d: %s", t.ExitCode, t.Message)
		}
		if t.Reason != "" {
			return fmt.Sprintf("container exited with code %d (%s)", t.ExitCode, t.Reason)
		}
		return fmt.Sprintf("container exited with code %d", t.ExitCode)
	}
	if pod.Status.Reason != "" {
		return fmt.Sprintf("pod failed (%s)", pod.Status.Reason)
	}
	return fmt.Sprintf("pod phase %s", pod.Status.Phase)
}
