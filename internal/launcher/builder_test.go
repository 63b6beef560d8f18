package launcher

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func baseRequest() NodeRequest {
	return NodeRequest{
		TaskID:          "train-model",
		Node:            "train_model",
		Namespace:       "pipelines",
		Environment:     "pipelines",
		Image:           "registry.example.com/spaceflights:latest",
		ImagePullPolicy: "Always",
		VolumeClaim:     "shared-storage",
	}
}

func TestBuildWorkloadSpecCommand(t *testing.T) {
	req := baseRequest()
	req.Pipeline = "data_science"

	spec, err := BuildWorkloadSpec(req)
	require.NoError(t, err)

	want := []string{"kedro", "run", "-e", "pipelines", "--pipeline", "data_science", "--node", "train_model"}
	if diff := cmp.Diff(want, spec.Command); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWorkloadSpecDefaults(t *testing.T) {
	spec, err := BuildWorkloadSpec(baseRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"kedro", "run", "-e", "pipelines", "--pipeline", "__default__", "--node", "train_model"}, spec.Command)
	assert.Equal(t, 600*time.Second, spec.StartupTimeout)
	require.Len(t, spec.Mounts, 1)
	assert.Equal(t, "storage", spec.Mounts[0].Name)
	assert.Equal(t, "/home/kedro/data", spec.Mounts[0].MountPath)
	assert.True(t, spec.DeleteOnCompletion)
}

func TestBuildResources(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NodeRequest)
		want   ResourceSpec
	}{
		{
			name:   "none configured",
			mutate: func(*NodeRequest) {},
			want:   ResourceSpec{},
		},
		{
			name: "requests only",
			mutate: func(r *NodeRequest) {
				r.RequestsCPU = "500m"
				r.RequestsMemory = "1Gi"
			},
			want: ResourceSpec{"requests.cpu": "500m", "requests.memory": "1Gi"},
		},
		{
			name: "limits only",
			mutate: func(r *NodeRequest) {
				r.LimitsCPU = "2"
				r.LimitsMemory = "4Gi"
			},
			want: ResourceSpec{"limits.cpu": "2", "limits.memory": "4Gi"},
		},
		{
			name: "memory without cpu",
			mutate: func(r *NodeRequest) {
				r.RequestsMemory = "1Gi"
				r.LimitsMemory = "2Gi"
			},
			want: ResourceSpec{"requests.memory": "1Gi", "limits.memory": "2Gi"},
		},
		{
			name: "full set",
			mutate: func(r *NodeRequest) {
				r.RequestsCPU = "500m"
				r.RequestsMemory = "1Gi"
				r.LimitsCPU = "2"
				r.LimitsMemory = "4Gi"
			},
			want: ResourceSpec{
				"requests.cpu":    "500m",
				"requests.memory": "1Gi",
				"limits.cpu":      "2",
				"limits.memory":   "4Gi",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)

			spec, err := BuildWorkloadSpec(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Resources)
		})
	}
}

func TestBuildSecurityContext(t *testing.T) {
	req := baseRequest()
	req.VolumeOwner = 1000

	spec, err := BuildWorkloadSpec(req)
	require.NoError(t, err)
	assert.Equal(t, SecurityContext{"fsGroup": int64(1000)}, spec.Security)

	req.VolumeDisabled = true
	req.VolumeClaim = ""
	spec, err = BuildWorkloadSpec(req)
	require.NoError(t, err)
	assert.Empty(t, spec.Security)
}

func TestBuildVolumeDisabled(t *testing.T) {
	req := baseRequest()
	req.VolumeDisabled = true
	req.VolumeClaim = ""

	spec, err := BuildWorkloadSpec(req)
	require.NoError(t, err)
	assert.Empty(t, spec.Mounts)
	assert.False(t, spec.Overlay.Volume)
}

func TestBuildRejectsMissingClaim(t *testing.T) {
	req := baseRequest()
	req.VolumeClaim = ""

	_, err := BuildWorkloadSpec(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume claim")
}

func TestBuildPassThrough(t *testing.T) {
	req := baseRequest()
	req.NodeSelector = map[string]string{"pool": "workers"}
	req.Labels = map[string]string{"app": "spaceflights"}
	req.Annotations = map[string]string{"team": "mlops"}
	req.Tolerations = []corev1.Toleration{{
		Key:      "dedicated",
		Operator: corev1.TolerationOpEqual,
		Value:    "pipelines",
		Effect:   corev1.TaintEffectNoSchedule,
	}}
	req.StartupTimeoutSeconds = 120

	spec, err := BuildWorkloadSpec(req)
	require.NoError(t, err)

	assert.Equal(t, req.NodeSelector, spec.NodeSelector)
	assert.Equal(t, req.Labels, spec.Labels)
	assert.Equal(t, req.Annotations, spec.Annotations)
	assert.Equal(t, 2*time.Minute, spec.StartupTimeout)
	if diff := cmp.Diff(req.Tolerations, spec.Tolerations); diff != "" {
		t.Errorf("tolerations mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOverlaySnapshot(t *testing.T) {
	spec, err := BuildWorkloadSpec(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, OverlaySpec{
		TaskID:   "train-model",
		Tracking: true,
		Volume:   true,
		Claim:    "shared-storage",
	}, spec.Overlay)

	req := baseRequest()
	req.TrackingDisabled = true
	spec, err = BuildWorkloadSpec(req)
	require.NoError(t, err)
	assert.False(t, spec.Overlay.Tracking)
}
