package player

// Reduce applies intent to s and returns the resulting state. It never mutates s
// and returns s unchanged for unknown kinds and for no-op intents.
//
// Postcondition: the State invariants hold for the result whenever they held for s.
// Negative amounts for TAKE_DAMAGE, HEAL, and ADD_SCORE are no-ops.
func Reduce(s State, intent Intent) State {
	switch intent.Kind {
	case IntentShoot:
		if s.Ammo > 0 {
			s.Ammo--
		}
	case IntentReload:
		s.Ammo = s.MaxAmmo
	case IntentTakeDamage:
		if intent.Amount > 0 {
			s.Health = max(0, s.Health-intent.Amount)
		}
	case IntentHeal:
		if intent.Amount > 0 {
			s.Health = min(s.MaxHealth, s.Health+intent.Amount)
		}
	case IntentMove:
		s.Position = s.Position.Add(intent.Delta)
	case IntentSetMission:
		m := intent.Mission
		s.CurrentMission = &m
	case IntentCompleteMission:
		if s.CurrentMission != nil {
			s.Score += s.CurrentMission.Reward
			s.CurrentMission = nil
		}
	case IntentEquipWeapon:
		s.EquippedWeaponID = intent.WeaponID
	case IntentAddScore:
		if intent.Amount > 0 {
			s.Score += intent.Amount
		}
	case IntentReset:
		return Initial()
	}
	return s
}
