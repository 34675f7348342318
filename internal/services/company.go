package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/diewo77/go-factures/internal/models"
)

// Company returns the account's company settings, defaults on first use.
func (s *InvoiceService) Company(ctx context.Context, account string) (models.CompanyInfo, error) {
	info, err := s.store.LoadCompanyInfo(ctx, account)
	if err != nil {
		return models.CompanyInfo{}, fmt.Errorf("load company info: %w", err)
	}
	return info, nil
}

// SaveCompany replaces the company settings wholesale.
func (s *InvoiceService) SaveCompany(ctx context.Context, account string, info models.CompanyInfo) error {
	if err := ValidateCompany(info); err != nil {
		return err
	}
	if err := s.store.SaveCompanyInfo(ctx, account, info); err != nil {
		s.log.Error("save company info failed", zap.String("account", account), zap.Error(err))
		return fmt.Errorf("save company info: %w", err)
	}
	s.log.Info("company info saved", zap.String("account", account))
	return nil
}
