package mappers

import (
	"fmt"

	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// ScanMapper handles the conversion between scan record domain types and
// persistence models.
type ScanMapper interface {
	VulnToModel(rec *scan.VulnRecord) *models.VulnScanModel
	VulnToDomain(model *models.VulnScanModel) (*scan.VulnRecord, error)
	PortToModel(rec *scan.PortRecord) *models.PortScanModel
	PortToDomain(model *models.PortScanModel) (*scan.PortRecord, error)
	HostToModel(rec *scan.HostRecord) *models.HostScanModel
	HostToDomain(model *models.HostScanModel) (*scan.HostRecord, error)
}

// ScanMapperImpl is the concrete implementation of ScanMapper.
type ScanMapperImpl struct{}

// NewScanMapper creates a new ScanMapper.
func NewScanMapper() ScanMapper {
	return &ScanMapperImpl{}
}

func (m *ScanMapperImpl) VulnToModel(rec *scan.VulnRecord) *models.VulnScanModel {
	return &models.VulnScanModel{
		ID:             rec.ID,
		IP:             rec.IP.String(),
		IPInt:          iputil.AddrToUint32(rec.IP),
		Port:           rec.Port,
		Protocol:       rec.Protocol,
		Source:         rec.Source,
		SourceID:       rec.SourceID,
		Name:           rec.Name,
		Severity:       rec.Severity,
		CVSSBaseScore:  rec.CVSSBaseScore,
		CVSS3BaseScore: rec.CVSS3BaseScore,
		CVE:            rec.CVE,
		VPRScore:       rec.VPRScore,
		Owner:          rec.Owner,
		Time:           rec.Time.UnixMilli(),
		Latest:         rec.Latest,
	}
}

func (m *ScanMapperImpl) VulnToDomain(model *models.VulnScanModel) (*scan.VulnRecord, error) {
	addr, err := iputil.ParseAddr(model.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vuln scan IP (id=%s): %w", model.ID, err)
	}
	return &scan.VulnRecord{
		ID:             model.ID,
		IP:             addr,
		Port:           model.Port,
		Protocol:       model.Protocol,
		Source:         model.Source,
		SourceID:       model.SourceID,
		Name:           model.Name,
		Severity:       model.Severity,
		CVSSBaseScore:  model.CVSSBaseScore,
		CVSS3BaseScore: model.CVSS3BaseScore,
		CVE:            model.CVE,
		VPRScore:       model.VPRScore,
		Owner:          model.Owner,
		Time:           timeutil.FromUnixMilli(model.Time),
		Latest:         model.Latest,
	}, nil
}

func (m *ScanMapperImpl) PortToModel(rec *scan.PortRecord) *models.PortScanModel {
	return &models.PortScanModel{
		ID:       rec.ID,
		IP:       rec.IP.String(),
		IPInt:    iputil.AddrToUint32(rec.IP),
		Port:     rec.Port,
		Protocol: rec.Protocol,
		Source:   rec.Source,
		SourceID: rec.SourceID,
		Name:     rec.Name,
		Service:  rec.Service,
		State:    rec.State,
		Owner:    rec.Owner,
		Time:     rec.Time.UnixMilli(),
		Latest:   rec.Latest,
	}
}

func (m *ScanMapperImpl) PortToDomain(model *models.PortScanModel) (*scan.PortRecord, error) {
	addr, err := iputil.ParseAddr(model.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port scan IP (id=%s): %w", model.ID, err)
	}
	return &scan.PortRecord{
		ID:       model.ID,
		IP:       addr,
		Port:     model.Port,
		Protocol: model.Protocol,
		Source:   model.Source,
		SourceID: model.SourceID,
		Name:     model.Name,
		Service:  model.Service,
		State:    model.State,
		Owner:    model.Owner,
		Time:     timeutil.FromUnixMilli(model.Time),
		Latest:   model.Latest,
	}, nil
}

func (m *ScanMapperImpl) HostToModel(rec *scan.HostRecord) *models.HostScanModel {
	return &models.HostScanModel{
		ID:     rec.ID,
		IP:     rec.IP.String(),
		IPInt:  iputil.AddrToUint32(rec.IP),
		Up:     rec.Up,
		Time:   rec.Time.UnixMilli(),
		Latest: rec.Latest,
	}
}

func (m *ScanMapperImpl) HostToDomain(model *models.HostScanModel) (*scan.HostRecord, error) {
	addr, err := iputil.ParseAddr(model.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host scan IP (id=%s): %w", model.ID, err)
	}
	return &scan.HostRecord{
		ID:     model.ID,
		IP:     addr,
		Up:     model.Up,
		Time:   timeutil.FromUnixMilli(model.Time),
		Latest: model.Latest,
	}, nil
}
