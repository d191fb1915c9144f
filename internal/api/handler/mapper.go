package handler

import (
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Phone:      req.Phone,
		Location:   req.Location,
		Type:       domain.UserType(req.UserType),
		Specialty:  req.Specialty,
		Experience: req.Experience,
	}
}

func toProfileInput(req updateProfileRequest) ports.ProfileInput {
	in := ports.ProfileInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Location:    req.Location,
		Specialty:   req.Specialty,
		Experience:  req.Experience,
		ServiceArea: req.ServiceArea,
	}
	if req.PriceRange != nil {
		in.PriceRange = &domain.PriceRange{Min: req.PriceRange.Min, Max: req.PriceRange.Max}
	}
	if req.Notifications != nil {
		in.Notifications = &domain.NotificationPreferences{
			Email: req.Notifications.Email,
			SMS:   req.Notifications.SMS,
			Push:  req.Notifications.Push,
		}
	}
	return in
}

func toPlanInput(req planRequest) ports.PlanInput {
	return ports.PlanInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		IsActive:     req.IsActive,
	}
}

func toTransactionInput(req transactionRequest) ports.TransactionInput {
	return ports.TransactionInput{
		Type:            domain.TransactionType(req.Type),
		UserID:          req.UserID,
		UserName:        req.UserName,
		PlanID:          req.PlanID,
		OrderRef:        req.OrderRef,
		Amount:          req.Amount,
		PlatformShare:   req.PlatformShare,
		Currency:        req.Currency,
		PaymentProvider: req.PaymentProvider,
		Details:         req.Details,
		Notes:           req.Notes,
	}
}

// --- Service output → Response ---

func toMembershipResponse(s *ports.MembershipStatus) membershipResponse {
	return membershipResponse{Type: s.Type, Subscription: s.Subscription, Plan: s.Plan}
}

func toFeaturedCrafterResponses(views []ports.FeaturedCrafterView) []featuredCrafterResponse {
	out := make([]featuredCrafterResponse, 0, len(views))
	for _, v := range views {
		out = append(out, featuredCrafterResponse{
			Crafter: v.Crafter,
			AddedBy: v.AddedBy,
			AddedAt: v.AddedAt.UTC().Format(time.RFC3339),
			Notes:   v.Notes,
		})
	}
	return out
}
