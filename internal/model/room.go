package model

import "time"

// TemplateSeat is one position of a room layout.  Template seats carry
// no reservation state; Available is the value a fresh showing starts
// with.
type TemplateSeat struct {
    Row       string `json:"row"`
    Number    uint32 `json:"number"`
    Available bool   `json:"available"`
}

// RoomTemplate is the canonical seat geometry of a physical room.  Its
// seat list is deep-copied into every showing scheduled in the room and
// is never mutated afterwards.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique room name (e.g. "Salle 1").
//  TotalRows   – number of rows; rows are labelled A, B, ... Z, AA, AB ...
//  SeatsPerRow – seats per row, numbered from 1.
//  Seats       – flattened layout, row-major.
//  CreatedAt   – creation timestamp.
type RoomTemplate struct {
    ID          uint64         `json:"id"`            // room_templates.id
    Name        string         `json:"name"`          // room_templates.name
    TotalRows   uint32         `json:"total_rows"`    // room_templates.total_rows
    SeatsPerRow uint32         `json:"seats_per_row"` // room_templates.seats_per_row
    Seats       []TemplateSeat `json:"seats"`         // room_templates.seats (JSON)
    CreatedAt   time.Time      `json:"created_at"`    // room_templates.created_at
}

// NewRoomTemplate builds a rectangular layout of rows x seatsPerRow seats,
// all available.
func NewRoomTemplate(name string, rows, seatsPerRow uint32) RoomTemplate {
    seats := make([]TemplateSeat, 0, int(rows)*int(seatsPerRow))
    for r := 0; r < int(rows); r++ {
        label := RowLabel(r)
        for n := uint32(1); n <= seatsPerRow; n++ {
            seats = append(seats, TemplateSeat{Row: label, Number: n, Available: true})
        }
    }
    return RoomTemplate{Name: name, TotalRows: rows, SeatsPerRow: seatsPerRow, Seats: seats}
}

// RowLabel converts a zero-based row index to its label: 0 -> A,
// 25 -> Z, 26 -> AA.
func RowLabel(i int) string {
    if i < 0 {
        return ""
    }
    var res []byte
    for {
        res = append(res, byte('A'+i%26))
        i = i/26 - 1
        if i < 0 {
            break
        }
    }
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
        res[j], res[k] = res[k], res[j]
    }
    return string(res)
}
