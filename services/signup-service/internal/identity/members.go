package identity

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/bwmarrin/discordgo"
	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/logger"
)

// MemberSource answers role membership questions for one guild.
type MemberSource interface {
	MemberRoles(ctx context.Context, userId string) ([]string, error)
	MembersWithRole(ctx context.Context, roleId string) ([]string, error)
}

// guildAPI is the part of *discordgo.Session used here.
type guildAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

const guildMembersPageSize = 1000

type DiscordMembers struct {
	api     guildAPI
	state   *discordgo.State
	guildId string
	logger  *logger.Logger
}

func NewDiscordMembers(session *discordgo.Session, guildId string, log *logger.Logger) *DiscordMembers {
	return newDiscordMembers(session, session.State, guildId, log)
}

func newDiscordMembers(api guildAPI, state *discordgo.State, guildId string, log *logger.Logger) *DiscordMembers {
	return &DiscordMembers{
		api:     api,
		state:   state,
		guildId: guildId,
		logger:  log.With("component", "discord-members"),
	}
}

// MemberRoles checks the gateway state first and falls back to REST. A user
// who is not in the guild has no roles.
func (d *DiscordMembers) MemberRoles(ctx context.Context, userId string) ([]string, error) {
	if d.state != nil {
		if member, err := d.state.Member(d.guildId, userId); err == nil {
			return member.Roles, nil
		}
	}

	member, err := d.api.GuildMember(d.guildId, userId, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDiscordError, "failed to fetch guild member").WithField("user_id", userId)
	}
	return member.Roles, nil
}

// MembersWithRole pages through the whole member list. The state cache is
// not used because it only holds members the gateway has seen.
func (d *DiscordMembers) MembersWithRole(ctx context.Context, roleId string) ([]string, error) {
	ids := make([]string, 0)
	after := ""

	for {
		page, err := d.api.GuildMembers(d.guildId, after, guildMembersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDiscordError, "failed to list guild members")
		}

		for _, member := range page {
			if member.User == nil {
				continue
			}
			for _, r := range member.Roles {
				if r == roleId {
					ids = append(ids, member.User.ID)
					break
				}
			}
		}

		if len(page) < guildMembersPageSize {
			break
		}
		last := page[len(page)-1]
		if last.User == nil {
			break
		}
		after = last.User.ID
	}

	d.logger.Debug("Resolved role members", "role_id", roleId, "count", len(ids))
	return ids, nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// StaticMembers serves role lookups from a fixed table. Used when no bot
// token is configured and in tests.
type StaticMembers struct {
	roles map[string][]string
}

func NewStaticMembers(rolesByUser map[string][]string) *StaticMembers {
	if rolesByUser == nil {
		rolesByUser = map[string][]string{}
	}
	return &StaticMembers{roles: rolesByUser}
}

func (s *StaticMembers) MemberRoles(_ context.Context, userId string) ([]string, error) {
	return s.roles[userId], nil
}

func (s *StaticMembers) MembersWithRole(_ context.Context, roleId string) ([]string, error) {
	ids := make([]string, 0)
	for user, roles := range s.roles {
		for _, r := range roles {
			if r == roleId {
				ids = append(ids, user)
				break
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}
