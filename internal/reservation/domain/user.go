package domain

import "strings"

const elderAge = 60

type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string `json:"name" gorm:"size:100;not null"`
	Email      string `json:"email" gorm:"size:100;not null;uniqueIndex"`
	Age        int    `json:"age"`
	Gender     string `json:"gender" gorm:"size:20"`
	Role       string `json:"role" gorm:"size:20;not null"`
	Password   string `json:"-" gorm:"size:100;not null"`
	IsPregnant bool   `json:"isPregnant"`
}

func (u User) ElderEligible() bool {
	return u.Age >= elderAge
}

func (u User) PregnantEligible() bool {
	return u.IsPregnant && strings.EqualFold(u.Gender, "female")
}

// PriorityInfo é só uma recomendação; a reserva nunca a exige.
type PriorityInfo struct {
	UserID              string   `json:"userId"`
	ElderEligible       bool     `json:"elderlyPriorityEligible"`
	PregnantEligible    bool     `json:"pregnantPriorityEligible"`
	RecommendedSeatType SeatType `json:"recommendedSeatType"`
}

func (u User) Priority() PriorityInfo {
	info := PriorityInfo{
		UserID:              u.ID,
		ElderEligible:       u.ElderEligible(),
		PregnantEligible:    u.PregnantEligible(),
		RecommendedSeatType: SeatRegular,
	}
	switch {
	case info.PregnantEligible:
		info.RecommendedSeatType = SeatPregnant
	case info.ElderEligible:
		info.RecommendedSeatType = SeatElder
	}
	return info
}
