// Package sequence provides the outreach sequence planner for LeadPipe.
//
// It is pure and side-effect free: given a start instant it computes the
// fixed three-step cadence, and given a step it renders deterministic
// subject and body text. All wall-clock dependence is passed in explicitly.
package sequence

import (
	"fmt"
	"time"
)

// Steps is the ordered set of sequence steps.
const Steps = 3

// StepOffsetDays maps each sequence step to its offset from the start
// instant. Steps are a fixed 1→2→3 cadence with no branching.
var StepOffsetDays = map[int]int{
	1: 0, // day 0
	2: 3, // +3 days
	3: 7, // +7 days
}

// ScheduleDates maps a sequence start instant to the scheduled instant of
// each step. Re-running with the same start produces identical offsets.
func ScheduleDates(start time.Time) map[int]time.Time {
	dates := make(map[int]time.Time, len(StepOffsetDays))
	for step, offset := range StepOffsetDays {
		dates[step] = start.Add(time.Duration(offset) * 24 * time.Hour)
	}
	return dates
}

// Quarter returns the 1-based calendar quarter of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// RenderSubject renders the subject line for a step.
func RenderSubject(step int, companyName string) string {
	switch step {
	case 1:
		return fmt.Sprintf("Ideas para tus eventos corporativos – %s", companyName)
	case 2:
		return fmt.Sprintf("Seguimiento rápido – %s", companyName)
	default:
		return fmt.Sprintf("Cierro el loop – %s", companyName)
	}
}

// RenderBody renders the plaintext body for a step. An empty contact name
// falls back to a generic salutation. The step-3 body embeds the quarter
// label of the sequence start instant, keeping rendering deterministic.
func RenderBody(step int, contactName, companyName string, start time.Time) string {
	salutation := contactName
	if salutation == "" {
		salutation = "equipo"
	}
	switch step {
	case 1:
		return fmt.Sprintf(
			"Hola %s,\n\n"+
				"Ayudo a empresas MICE a diseñar y ejecutar incentivos y eventos que generan pipeline y retención."+
				"\n\nTengo 3 ideas rápidas adaptadas a %s. Si tiene sentido, puedo compartir un deck breve y un calendario."+
				"\n\n¿Te parece si coordinamos una llamada de 15 minutos esta semana?\n\nSaludos,\n",
			salutation, companyName)
	case 2:
		return fmt.Sprintf(
			"Hola %s,\n\n"+
				"Solo para mantener el hilo vivo. Podemos encargarnos de end-to-end (sourcing de venues, logística, agenda, patrocinios)."+
				"\n\n¿Quieres que te envíe 2-3 casos relevantes y presupuesto estimado?\n\nSaludos,\n",
			salutation)
	default:
		return fmt.Sprintf(
			"Hola %s,\n\n"+
				"Cierro el loop por ahora. Si en Q%d están evaluando proveedores para eventos/incentivos,"+
				" me encantaría aplicar.\n\n¿Te dejo material para cuando lo necesites?\n\nGracias,\n",
			salutation, Quarter(start))
	}
}
