package services

import (
	"context"
	"sort"
	"time"

	"masterycourse/backend/config"
	"masterycourse/backend/discord"
	"masterycourse/backend/models"
	"masterycourse/backend/observability"
	"masterycourse/backend/repository"
	"masterycourse/backend/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	effectModuleNotification = "module_notification"
	effectRoleGrant          = "role_grant"
	effectRoleRevoke         = "role_revoke"
	effectPromotionMessage   = "promotion_notification"
)

// Dispatcher turns a module milestone into chat side effects. Every failure
// is logged and counted, never returned.
type Dispatcher struct {
	client  discord.Client
	courses repository.CourseRepo
	cfg     config.DiscordConfig
	log     *utils.Logger
	now     func() time.Time
}

func NewDispatcher(client discord.Client, courses repository.CourseRepo, cfg config.DiscordConfig, log *utils.Logger) *Dispatcher {
	return &Dispatcher{
		client:  client,
		courses: courses,
		cfg:     cfg,
		log:     log.With("component", "Dispatcher"),
		now:     time.Now,
	}
}

// OnModuleCompleted announces the module and moves the member to the role
// tier the module unlocks.
func (d *Dispatcher) OnModuleCompleted(ctx context.Context, user models.User, moduleID uuid.UUID) {
	ctx, span := observability.Tracer().Start(ctx, "dispatcher.OnModuleCompleted")
	defer span.End()
	span.SetAttributes(attribute.String("module.id", moduleID.String()))

	log := d.log.With("user_id", user.DiscordID, "module_id", moduleID)
	if d.client == nil || !d.client.IsReady() {
		log.Warn("discord client not ready, skipping module notification")
		observability.ObserveEffect(effectModuleNotification, "skipped")
		return
	}

	module, err := d.courses.GetModule(ctx, moduleID)
	if err != nil {
		log.Error("load module for notification", "error", err)
		observability.ObserveEffect(effectModuleNotification, "failed")
		return
	}

	d.announce(ctx, log, user, module)
	d.promote(ctx, log, user, module)
}

func (d *Dispatcher) announce(ctx context.Context, log *utils.Logger, user models.User, module *models.Module) {
	if d.cfg.NotificationChannelID == "" {
		log.Warn("notification channel not configured")
		observability.ObserveEffect(effectModuleNotification, "skipped")
		return
	}
	msg := discord.ModuleCompletedMessage(user.DiscordID, module.Title, module.OrderIndex, d.cfg.Footer, d.now())
	if err := d.client.SendMessage(ctx, d.cfg.NotificationChannelID, msg); err != nil {
		log.Error("send module completion notification", "error", err)
		observability.ObserveEffect(effectModuleNotification, "failed")
		return
	}
	log.Info("module completion notification sent", "module", module.OrderIndex)
	observability.ObserveEffect(effectModuleNotification, "sent")
}

func (d *Dispatcher) promote(ctx context.Context, log *utils.Logger, user models.User, module *models.Module) {
	tiers := d.cfg.RoleTiers()
	target, ok := tiers[module.OrderIndex]
	if !ok {
		log.Debug("no role mapping for module", "module", module.OrderIndex)
		return
	}
	if d.cfg.GuildID == "" {
		log.Warn("guild not configured, skipping role update")
		observability.ObserveEffect(effectRoleGrant, "skipped")
		return
	}

	member, err := d.client.GuildMember(ctx, d.cfg.GuildID, user.DiscordID)
	if err != nil {
		log.Error("fetch guild member", "error", err)
		observability.ObserveEffect(effectRoleGrant, "failed")
		return
	}
	if d.client.HasRole(member, target.RoleID) {
		log.Info("member already holds role", "role", target.Name)
		observability.ObserveEffect(effectRoleGrant, "skipped")
		return
	}

	for _, order := range sortedOrders(tiers) {
		tier := tiers[order]
		if tier.RoleID == target.RoleID || !d.client.HasRole(member, tier.RoleID) {
			continue
		}
		if err := d.client.RemoveRole(ctx, member, tier.RoleID); err != nil {
			log.Error("remove previous course role", "role", tier.Name, "error", err)
			observability.ObserveEffect(effectRoleRevoke, "failed")
			continue
		}
		observability.ObserveEffect(effectRoleRevoke, "sent")
	}

	if err := d.client.AddRole(ctx, member, target.RoleID); err != nil {
		log.Error("add course role", "role", target.Name, "error", err)
		observability.ObserveEffect(effectRoleGrant, "failed")
		return
	}
	observability.ObserveEffect(effectRoleGrant, "sent")
	log.Info("course role granted", "role", target.Name)

	if d.cfg.NotificationChannelID == "" {
		return
	}
	msg := discord.RolePromotionMessage(user.DiscordID, target.Name, module.OrderIndex, d.cfg.Footer, d.now())
	if err := d.client.SendMessage(ctx, d.cfg.NotificationChannelID, msg); err != nil {
		log.Error("send role promotion notification", "error", err)
		observability.ObserveEffect(effectPromotionMessage, "failed")
		return
	}
	observability.ObserveEffect(effectPromotionMessage, "sent")
}

func sortedOrders(tiers map[int]config.RoleTier) []int {
	orders := make([]int, 0, len(tiers))
	for o := range tiers {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	return orders
}
