package engagement

import (
	"context"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"go.uber.org/zap"
)

// ContractService reads and signs the contracts of an engagement
type ContractService struct {
	erp    erp.Client
	logger *zap.Logger
}

// NewContractService creates a new contract service
func NewContractService(client erp.Client, logger *zap.Logger) *ContractService {
	return &ContractService{erp: client, logger: logger}
}

// List returns the contracts of an engagement
func (s *ContractService) List(ctx context.Context, viewer Viewer, engagementID string) ([]ContractInfo, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	contracts, err := s.erp.ListContracts(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list contracts", zap.Error(err))
		return nil, mapERPError(err)
	}

	infos := make([]ContractInfo, 0, len(contracts))
	for _, c := range contracts {
		infos = append(infos, newContractInfo(c))
	}
	return infos, nil
}

// Get returns one contract of an engagement
func (s *ContractService) Get(ctx context.Context, viewer Viewer, engagementID, contractID string) (*ContractInfo, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	contract, err := s.erp.GetContract(ctx, contractID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if contract.Project != engagementID || contract.Party != project.Customer {
		return nil, shared.NewDomainError("NOT_FOUND", "Contract not found")
	}

	info := newContractInfo(*contract)
	return &info, nil
}

// Sign executes a contract on behalf of the viewer. The contract must belong
// to an engagement in the viewer's scope.
func (s *ContractService) Sign(ctx context.Context, viewer Viewer, engagementID, contractID string) (*ContractInfo, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	contracts, err := s.erp.ListContracts(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list contracts before signing", zap.Error(err))
		return nil, mapERPError(err)
	}

	var target *erp.Contract
	for i := range contracts {
		if contracts[i].Name == contractID {
			target = &contracts[i]
			break
		}
	}
	if target == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Contract not found")
	}
	if target.Signed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Contract is already signed")
	}

	signed, err := s.erp.SignContract(ctx, contractID, viewer.Email)
	if err != nil {
		s.logger.Error("Failed to sign contract", zap.Error(err))
		return nil, mapERPError(err)
	}

	s.logger.Info("Contract signed",
		zap.String("contract_id", contractID),
		zap.String("engagement_id", engagementID),
		zap.String("signed_by", viewer.Email))

	info := newContractInfo(*signed)
	return &info, nil
}
