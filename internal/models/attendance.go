package models

import "time"

// DayLayout: формат календарного дня (колонка dia)
const DayLayout = "2006-01-02"

// AttendanceRecord: отметка о присутствии (таблица alunos).
// Name копируется из реестра в момент отметки, Matricula: введённые 4 цифры.
type AttendanceRecord struct {
	ID         int       `json:"id"`
	Name       string    `json:"nome"`
	Matricula  string    `json:"matricula"`
	Timestamp  time.Time `json:"data_hora"`
	Day        string    `json:"dia"`
	CallNumber int       `json:"numero_chamada"`
}
