package utils

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"hostcoin-go/models"
)

// ApplyResource converts a held inventory unit into an actual change on the
// hosted server. The panel is mutated first; the local counter is only
// decremented after confirmed external success, so a panel failure leaves
// the inventory exactly as it was.
func ApplyResource(ctx context.Context, identity, resourceType string, amount int, serverID string) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok := ResourceColumn(resourceType); !ok {
		return nil, ErrUnknownResource
	}
	if resourceType == "slots" {
		// Slots are consumed when a server is created, not applied to one
		return nil, ErrNotAppliable
	}

	acct, err := GetAccount(identity, "")
	if err != nil {
		return nil, err
	}
	held, _ := acct.Resource(resourceType)
	if held < amount {
		return nil, ErrInsufficientResource
	}

	if Panel == nil {
		return nil, ErrPanelUnavailable
	}

	srv, err := Panel.GetServerBuild(ctx, serverID)
	if err != nil {
		log.Printf("Failed to fetch build for server %s: %v", serverID, err)
		return nil, err
	}

	build := BuildFromServer(srv)
	switch resourceType {
	case "ram":
		build.Memory += amount * MegabytesPerGB
	case "disk":
		build.Disk += amount * MegabytesPerGB
	case "cpu":
		build.CPU += amount
	case "backups":
		build.FeatureLimits.Backups += amount
	case "ports":
		build.FeatureLimits.Allocations += amount
	}

	if err := Panel.UpdateServerBuild(ctx, serverID, build); err != nil {
		log.Printf("Panel build update failed for server %s: %v", serverID, err)
		return nil, err
	}

	updated, err := AdjustResource(identity, resourceType, -amount)
	if err != nil {
		// The panel change landed but the local debit did not. Best-effort
		// reconciliation only; flag it loudly for the operator.
		log.Printf("WARNING: panel applied %d %s to server %s but local decrement for %s failed: %v",
			amount, resourceType, serverID, identity, err)
		return nil, err
	}

	log.Printf("Applied %d %s from %s to server %s", amount, resourceType, identity, serverID)
	return updated, nil
}

// provisionDebits is the inventory consumed by a server creation, in a
// fixed order so partial-failure logs are reproducible.
type provisionDebit struct {
	resource string
	amount   int
}

// ProvisionServer creates a server on the panel from held inventory. The
// inventory is debited only after the panel confirms the creation.
func ProvisionServer(ctx context.Context, identity, username, name string, ramGB, diskGB, cpuPct int) (*Server, error) {
	if ramGB <= 0 || diskGB <= 0 || cpuPct <= 0 {
		return nil, ErrInvalidAmount
	}
	if Panel == nil {
		return nil, ErrPanelUnavailable
	}

	acct, err := GetAccount(identity, username)
	if err != nil {
		return nil, err
	}
	if acct.HasServer {
		return nil, ErrServerExists
	}

	debits := []provisionDebit{
		{"slots", 1},
		{"ram", ramGB},
		{"disk", diskGB},
		{"cpu", cpuPct},
	}
	for _, d := range debits {
		held, _ := acct.Resource(d.resource)
		if held < d.amount {
			return nil, ErrInsufficientResource
		}
	}

	panelUserID := acct.PanelUserID
	if panelUserID == 0 {
		user, err := Panel.CreateUser(ctx, CreateUserRequest{
			Username:  username,
			Email:     fmt.Sprintf("%s@hostcoin.local", identity),
			FirstName: username,
			LastName:  "Member",
		})
		if err != nil {
			return nil, err
		}
		panelUserID = user.ID
		if err := SetPanelUser(identity, panelUserID); err != nil {
			return nil, err
		}
	}

	nests, err := Panel.ListNests(ctx)
	if err != nil {
		return nil, err
	}
	if len(nests) == 0 {
		return nil, &ExternalApplyError{Status: 0, Detail: "panel has no nests configured"}
	}
	eggs, err := Panel.ListEggs(ctx, nests[0].ID)
	if err != nil {
		return nil, err
	}
	if len(eggs) == 0 {
		return nil, &ExternalApplyError{Status: 0, Detail: "panel has no eggs configured"}
	}
	egg := eggs[0]

	req := CreateServerRequest{
		Name:        name,
		UserID:      panelUserID,
		EggID:       egg.ID,
		DockerImage: egg.DockerImage,
		Startup:     egg.Startup,
		Environment: map[string]string{},
		Limits: ServerLimits{
			Memory: ramGB * MegabytesPerGB,
			Disk:   diskGB * MegabytesPerGB,
			CPU:    cpuPct,
			Swap:   0,
			IO:     500,
		},
		FeatureLimits: FeatureLimits{
			Databases:   0,
			Allocations: 1,
			Backups:     0,
		},
	}

	// Pin a free allocation when one exists; otherwise hand the panel a
	// deploy object and let it place the server itself.
	allocationID, err := Panel.FindFreeAllocation(ctx)
	if err != nil {
		log.Printf("Allocation scan failed, falling back to panel deploy: %v", err)
		allocationID = 0
	}
	if allocationID != 0 {
		req.Allocation = &AllocationRef{Default: allocationID}
	} else {
		req.Deploy = &DeployConfig{
			Locations:   Panel.locations,
			PortRange:   []string{},
			DedicatedIP: false,
		}
	}

	srv, err := Panel.CreateServer(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, d := range debits {
		if _, err := AdjustResource(identity, d.resource, -d.amount); err != nil {
			log.Printf("WARNING: server %d created but debit of %d %s for %s failed: %v",
				srv.ID, d.amount, d.resource, identity, err)
		}
	}
	if err := SetServer(identity, strconv.FormatInt(srv.ID, 10)); err != nil {
		log.Printf("WARNING: failed to link server %d to %s: %v", srv.ID, identity, err)
	}

	log.Printf("Provisioned server %d (%s) for %s", srv.ID, name, identity)
	return srv, nil
}

// ReleaseServer deletes the account's server on the panel and unlinks it
func ReleaseServer(ctx context.Context, identity string) error {
	acct, err := GetAccount(identity, "")
	if err != nil {
		return err
	}
	if !acct.HasServer {
		return ErrNoServer
	}
	if Panel == nil {
		return ErrPanelUnavailable
	}

	if err := Panel.DeleteServer(ctx, acct.ServerID); err != nil {
		log.Printf("Panel delete failed for server %s: %v", acct.ServerID, err)
		return err
	}

	if err := SetServer(identity, ""); err != nil {
		return err
	}
	log.Printf("Released server %s for %s", acct.ServerID, identity)
	return nil
}
