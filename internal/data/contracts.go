package data

const (
	RouteEmployees         string = "/employees"
	RouteEmployeesAdd      string = RouteEmployees + "/add"
	RouteEmployeesGetAll   string = RouteEmployees + "/getall"
	RouteEmployeesGet      string = RouteEmployees + "/get/{" + PathId + "}"
	RouteEmployeesGetf     string = RouteEmployees + "/get/%d"
	RouteEmployeesUpdate   string = RouteEmployees + "/update"
	RouteEmployeesReplace  string = RouteEmployees + "/replace/{" + PathId + "}"
	RouteEmployeesReplacef string = RouteEmployees + "/replace/%d"
	RouteEmployeesDelete   string = RouteEmployees + "/delete/{" + PathId + "}"
	RouteEmployeesDeletef  string = RouteEmployees + "/delete/%d"
	RouteCache             string = "/cache"
	RouteCacheCounters     string = RouteCache + "/counters"
	RouteTimers            string = "/timers"
	RouteMetrics           string = "/metrics"
)

const PathId string = "id"

const (
	ParameterId         string = "id"
	ParameterColumn     string = "column"
	ParameterDataToEdit string = "dataToEdit"
)

const (
	MessageDataInserted   string = "Data inserted successfully"
	MessageRecordDeleted  string = "Record Deleted"
	MessageRecordNotFound string = "Record Not Found"
)

type Error struct {
	Error string `json:"error"`
}
