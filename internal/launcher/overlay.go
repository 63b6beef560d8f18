package launcher

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"text/template"

	"github.com/google/uuid"
)

// deferredRunIDPull 是宿主调度器运行期才求值的延迟表达式，渲染时原样写入。
const deferredRunIDPull = `{{ task_instance.xcom_pull(key="mlflow_run_id") }}`

// overlayText 描述补充文档的固定骨架，条件段由渲染数据控制。
const overlayText = `apiVersion: v1
kind: Pod
metadata:
  name: {{ .Name }}
spec:
  containers:
    - name: base
      env:
{{- if .Tracking }}
        - name: MLFLOW_RUN_ID
          value: '{{ .RunIDPull }}'
{{- end }}
{{- if .Volume }}
  volumes:
    - name: storage
      persistentVolumeClaim:
        claimName: {{ .Claim }}
{{- end }}
`

var overlayTemplate = template.Must(template.New("overlay").Parse(overlayText))

// OverlaySpec 是渲染补充文档所需的最小快照，在构建阶段一次性定格。
type OverlaySpec struct {
	TaskID   string
	Tracking bool
	Volume   bool
	Claim    string
}

// Render 生成一份补充文档，每次调用都携带全新的随机名称后缀。
func (o OverlaySpec) Render() (string, error) {
	id := uuid.New()
	data := struct {
		Name      string
		Tracking  bool
		RunIDPull string
		Volume    bool
		Claim     string
	}{
		Name:      fmt.Sprintf("%s.%s", o.TaskID, hex.EncodeToString(id[:])),
		Tracking:  o.Tracking,
		RunIDPull: deferredRunIDPull,
		Volume:    o.Volume,
		Claim:     o.Claim,
	}

	var buf bytes.Buffer
	if err := overlayTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render workload overlay for task %q: %w", o.TaskID, err)
	}
	return buf.String(), nil
}
