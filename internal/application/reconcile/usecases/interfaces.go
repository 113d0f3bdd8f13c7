package usecases

import "context"

type ReconcileVulnScanExecutor interface {
	Execute(ctx context.Context, cmd ReconcileVulnScanCommand) (*ReconcileResult, error)
}

type ReconcilePortScanExecutor interface {
	Execute(ctx context.Context, cmd ReconcilePortScanCommand) (*ReconcileResult, error)
}

type ReconcileHostScanExecutor interface {
	Execute(ctx context.Context, cmd ReconcileHostScanCommand) (*ReconcileResult, error)
}
