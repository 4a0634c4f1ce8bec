package domain

// Queue is a logistics queue of the warehouse.
type Queue struct {
	ID   string
	Name string
}

var queueCatalog = []Queue{
	{ID: "10", Name: "4ª GAMA"},
	{ID: "11", Name: "FRUTA Y VERDURA"},
	{ID: "13", Name: "CARNE Y PESCADO"},
	{ID: "15", Name: "FORMATO BOX"},
	{ID: "20", Name: "REFRIGERADO"},
	{ID: "25", Name: "CONGELADO"},
	{ID: "30", Name: "DESAYUNO"},
	{ID: "31", Name: "BEBIDAS"},
	{ID: "32", Name: "CONS. PESC. Y CHOCOLATE"},
	{ID: "33", Name: "DESPENSA"},
	{ID: "34", Name: "QUÍMICA"},
	{ID: "37", Name: "REMONTABLES - EUR - DD"},
	{ID: "40", Name: "BAZAR MIÉRCOLES"},
	{ID: "41", Name: "BAZAR SÁBADO"},
	{ID: "45", Name: "CONSEJO LUNES"},
	{ID: "46", Name: "REPARTO / PUBLI"},
	{ID: "52", Name: "CHEP"},
	{ID: "36", Name: "NAVIDAD"},
}

// Queues returns the fixed queue catalog in display order.
func Queues() []Queue {
	return append([]Queue(nil), queueCatalog...)
}

// LookupQueue finds a catalog queue by id.
func LookupQueue(id string) (Queue, bool) {
	for _, q := range queueCatalog {
		if q.ID == id {
			return q, true
		}
	}
	return Queue{}, false
}

// QueueName is the display name of a queue; unknown ids render as "Cola <id>".
func QueueName(id string) string {
	if q, ok := LookupQueue(id); ok {
		return q.Name
	}
	return "Cola " + id
}
