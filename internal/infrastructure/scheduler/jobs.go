package scheduler

import (
	"context"

	"github.com/argus-sec/argus/internal/application/reconcile/usecases"
)

// VulnReconcileJob adapts the vulnerability reconciliation use case to the
// scheduler with a fixed command built from configuration.
type VulnReconcileJob struct {
	uc  usecases.ReconcileVulnScanExecutor
	cmd usecases.ReconcileVulnScanCommand
}

func NewVulnReconcileJob(uc usecases.ReconcileVulnScanExecutor, cmd usecases.ReconcileVulnScanCommand) *VulnReconcileJob {
	return &VulnReconcileJob{uc: uc, cmd: cmd}
}

func (j *VulnReconcileJob) Name() string {
	return "vuln-reconcile"
}

func (j *VulnReconcileJob) Execute(ctx context.Context) (int, error) {
	result, err := j.uc.Execute(ctx, j.cmd)
	if err != nil {
		return 0, err
	}
	return result.Findings, nil
}

// PortReconcileJob adapts the port reconciliation use case to the scheduler.
type PortReconcileJob struct {
	uc  usecases.ReconcilePortScanExecutor
	cmd usecases.ReconcilePortScanCommand
}

func NewPortReconcileJob(uc usecases.ReconcilePortScanExecutor, cmd usecases.ReconcilePortScanCommand) *PortReconcileJob {
	return &PortReconcileJob{uc: uc, cmd: cmd}
}

func (j *PortReconcileJob) Name() string {
	return "port-reconcile"
}

func (j *PortReconcileJob) Execute(ctx context.Context) (int, error) {
	result, err := j.uc.Execute(ctx, j.cmd)
	if err != nil {
		return 0, err
	}
	return result.Findings, nil
}

// HostReconcileJob adapts the host reconciliation use case to the scheduler.
type HostReconcileJob struct {
	uc  usecases.ReconcileHostScanExecutor
	cmd usecases.ReconcileHostScanCommand
}

func NewHostReconcileJob(uc usecases.ReconcileHostScanExecutor, cmd usecases.ReconcileHostScanCommand) *HostReconcileJob {
	return &HostReconcileJob{uc: uc, cmd: cmd}
}

func (j *HostReconcileJob) Name() string {
	return "host-reconcile"
}

func (j *HostReconcileJob) Execute(ctx context.Context) (int, error) {
	result, err := j.uc.Execute(ctx, j.cmd)
	if err != nil {
		return 0, err
	}
	return result.Findings, nil
}
