package data

import "encoding/json"

type Employee struct {
	Id        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Position  string `json:"position"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func CopyEmployee(e *Employee) *Employee {
	employee := &Employee{}
	*employee = *e
	return employee
}
