package database

import (
	"github.com/vgurov/americano/internal/tourney"
)

var models = []any{
	&tourney.Tournament{},
	&tourney.Registration{},
	&tourney.RegistrationPayment{},
	&tourney.Player{},
	&tourney.Team{},
	&tourney.TeamMember{},
	&tourney.Stage{},
	&tourney.Game{},
	&tourney.TeamState{},
	&tourney.PointsOverride{},
}
