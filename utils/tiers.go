package utils

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sethvargo/go-retry"
)

// TierFor returns the highest tier whose threshold the balance meets, or
// nil below the lowest threshold. Thresholds are inclusive.
func TierFor(balance float64) *Tier {
	for i := range Tiers {
		if balance >= Tiers[i].Threshold {
			return &Tiers[i]
		}
	}
	return nil
}

// SyncTierRole projects a balance onto the guild's tier roles: stale tier
// roles are revoked, the qualifying one granted. The projection is derived
// from balance alone and safe to recompute at any time.
func SyncTierRole(s *discordgo.Session, guildID, userID string, balance float64) error {
	member, err := s.GuildMember(guildID, userID)
	if err != nil {
		// Dashboard-only identities are not guild members; nothing to sync
		return err
	}

	held := make(map[string]bool, len(member.Roles))
	for _, roleID := range member.Roles {
		held[roleID] = true
	}

	target := TierFor(balance)
	for _, tier := range Tiers {
		isTarget := target != nil && tier.RoleID == target.RoleID
		switch {
		case isTarget && !held[tier.RoleID]:
			if err := s.GuildMemberRoleAdd(guildID, userID, tier.RoleID); err != nil {
				return err
			}
		case !isTarget && held[tier.RoleID]:
			if err := s.GuildMemberRoleRemove(guildID, userID, tier.RoleID); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnsureGuildMember adds a user to the guild via their OAuth access token.
// This is the one bot action that retries: exponential backoff, capped at
// 3 attempts and 10s delay.
func EnsureGuildMember(ctx context.Context, s *discordgo.Session, guildID, userID, accessToken string) error {
	backoff := retry.WithMaxRetries(3, retry.WithCappedDuration(10*time.Second, retry.NewExponential(time.Second)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.GuildMemberAdd(guildID, userID, &discordgo.GuildMemberAddParams{
			AccessToken: accessToken,
		})
		if err != nil {
			log.Printf("Guild join attempt for %s failed: %v", userID, err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
