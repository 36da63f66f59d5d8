// Package organizations enumerates the member accounts of an AWS
// Organization.
package organizations

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	orgsvc "github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// Directory lists the accounts to audit.
type Directory struct {
	client orgsvc.ListAccountsAPIClient
}

// NewDirectory returns a Directory backed by client, normally the
// Organizations client of the management account session.
func NewDirectory(client orgsvc.ListAccountsAPIClient) *Directory {
	return &Directory{client: client}
}

// ListAccounts pages through the organization and returns every ACTIVE
// account in directory order. Suspended and pending-closure accounts are
// dropped.
func (d *Directory) ListAccounts(ctx context.Context) ([]models.Account, error) {
	paginator := orgsvc.NewListAccountsPaginator(d.client, &orgsvc.ListAccountsInput{})

	var accounts []models.Account
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts page: %w", err)
		}
		for _, a := range page.Accounts {
			if a.Status != orgtypes.AccountStatusActive {
				continue
			}
			accounts = append(accounts, models.Account{
				ID:     aws.ToString(a.Id),
				Name:   aws.ToString(a.Name),
				Status: string(a.Status),
			})
		}
	}
	return accounts, nil
}

// Filter applies include and exclude lists to accounts. A non-empty include
// list keeps only the named IDs; exclude always wins. Order is preserved.
func Filter(accounts []models.Account, include, exclude []string) []models.Account {
	inc := toSet(include)
	exc := toSet(exclude)

	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if len(inc) > 0 {
			if _, ok := inc[a.ID]; !ok {
				continue
			}
		}
		if _, ok := exc[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
