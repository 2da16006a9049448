package responder

import (
	"fmt"

	"github.com/mockbank/agente-ia/pkg/domain"
)

// Built-in rule tables for the four specialist domains. Rule order is the
// documented tie-break priority and must not be reshuffled casually; the
// response texts are part of the external test contract.
//
// Keywords drive the specialist's own matching; RouterKeywords are extra
// synonyms only the orchestrator's classifier uses when picking a domain. A
// question that only hits a router synonym still routes here but gets the
// specialist's fallback.

func consultasTable() domain.RuleTable {
	return domain.RuleTable{
		Domain: domain.DominioConsultas,
		Rules: []domain.Rule{
			{
				Name:     "movimientos",
				Keywords: []string{"movimiento", "compra", "comprado", "últimamente"},
				Response: "Tu último movimiento fue una compra de 35€ en Amazon.",
			},
			{
				Name:     "saldo",
				Keywords: []string{"saldo"},
				Response: "Tu saldo actual es de 1.275,45€.",
			},
			{
				Name:     "extracto",
				Keywords: []string{"extracto"},
				Response: "Tu extracto de abril incluye 18 movimientos por un total de 1.052€.",
			},
			{
				Name:     "recibos",
				Keywords: []string{"recibo", "luz", "agua", "internet"},
				Response: "Tu último recibo de internet fue de 44,90€ y se cargó el día 3 de este mes.",
			},
			{
				Name:     "iban",
				Keywords: []string{"iban"},
				Response: "Tu IBAN es ES6600190020961234567890.",
			},
			{
				Name:     "oficinas",
				Keywords: []string{"cajero", "oficina", "localizar"},
				Response: "Puedes encontrar la oficina o cajero más cercano en nuestra app, sección 'Dónde estamos'.",
			},
			{
				Name:     "ingresos",
				Keywords: []string{"ingreso", "entrada de dinero"},
				Response: "Recibiste un ingreso de 1.200€ el pasado 27 de abril.",
			},
			{
				Name:     "tarjeta",
				Keywords: []string{"límite", "tarjeta"},
				Response: "El límite de tu tarjeta actual es de 2.000€ mensuales.",
			},
			{
				Name:     "divisas",
				Keywords: []string{"divisa", "cambio"},
				Response: "El tipo de cambio actual EUR/USD es 1,09.",
			},
			{
				Name:           "seguridad",
				Keywords:       []string{"último acceso", "seguridad"},
				RouterKeywords: []string{"acceso"},
				Response:       "Tu último acceso fue el 2 de mayo a las 17:42 desde la app móvil.",
			},
		},
		Fallback: "No tengo información suficiente para responder a tu consulta específica.",
	}
}

func cuentasTable() domain.RuleTable {
	return domain.RuleTable{
		Domain: domain.DominioCuentas,
		Rules: []domain.Rule{
			{
				Name:     "tipos",
				Keywords: []string{"tipo de cuenta", "tipos de cuenta"},
				Response: "Ofrecemos cuentas corrientes, cuentas nómina y cuentas de ahorro sin comisiones de mantenimiento.",
			},
			{
				Name:           "requisitos",
				Keywords:       []string{"requisito", "condicion"},
				RouterKeywords: []string{"documentación"},
				Response:       "Para abrir una cuenta necesitas ser mayor de edad, presentar DNI y un justificante de domicilio.",
			},
			{
				Name:     "comisiones",
				Keywords: []string{"comision"},
				Response: "Las cuentas estándar no tienen comisiones.",
			},
			{
				Name:     "cambio",
				Keywords: []string{"cambiar cuenta", "convertir cuenta"},
				Response: "Podemos ayudarte a convertir tu cuenta actual en una cuenta nómina si cumples las condiciones.",
			},
			{
				Name:           "apertura",
				Keywords:       []string{"abrir cuenta"},
				RouterKeywords: []string{"cuenta nueva"},
				Response:       "Tu cuenta ha sido abierta correctamente con IBAN ES6600190020961234567890.",
			},
			{
				Name:           "plazos",
				Keywords:       []string{"plazo", "apertura"},
				RouterKeywords: []string{"tiempo"},
				Response:       "El proceso de apertura es inmediato si se hace online. En oficina puede tardar 24-48h.",
			},
		},
		Fallback: "No he encontrado información sobre eso. ¿Quieres saber cómo abrir una cuenta o los requisitos?",
	}
}

func identidadTable() domain.RuleTable {
	return domain.RuleTable{
		Domain: domain.DominioIdentidad,
		Rules: []domain.Rule{
			{
				Name:     "documento",
				Keywords: []string{"dni", "nie"},
				Response: "Tu documento ha sido validado correctamente. Coincide con nuestros registros.",
			},
			{
				Name:     "codigo",
				Keywords: []string{"sms", "código", "llamada"},
				Response: "Código verificado correctamente. Tu sesión es segura.",
			},
			{
				Name:     "correo",
				Keywords: []string{"correo", "email"},
				Response: "Tu correo ha sido confirmado. Ya puedes continuar con tu operación.",
			},
			{
				Name:           "dos-factores",
				Keywords:       []string{"dos factores", "2fa"},
				RouterKeywords: []string{"doble factor"},
				Response:       "Autenticación en dos pasos completada correctamente.",
			},
			{
				Name:           "identidad",
				Keywords:       []string{"verificar identidad", "identidad"},
				RouterKeywords: []string{"autenticación"},
				Response:       "Identidad verificada con éxito para el usuario Juan Pérez.",
			},
		},
		Fallback: "No se ha podido determinar el tipo de verificación. Por favor, especifica el método (DNI, SMS, correo...).",
	}
}

func iaTable() domain.RuleTable {
	return domain.RuleTable{
		Domain: domain.DominioIA,
		Rules: []domain.Rule{
			{
				Name:     "hipoteca",
				Keywords: []string{"hipoteca"},
				Response: "Actualmente el tipo de interés para hipotecas es del 3,2%.",
			},
			{
				Name:     "tarjeta",
				Keywords: []string{"tarjeta"},
				Response: "Puedes solicitar una tarjeta desde la app o acudiendo a una oficina.",
			},
			{
				Name:     "transferencia",
				Keywords: []string{"transferencia"},
				Response: "Una transferencia nacional tarda aproximadamente 24h hábiles.",
			},
			{
				Name:     "comision",
				Keywords: []string{"comisión"},
				Response: "La comisión de mantenimiento es de 10€ trimestrales, pero puede eliminarse cumpliendo ciertos requisitos.",
			},
			{
				Name:     "oficina",
				Keywords: []string{"oficina"},
				Response: "Nuestro horario de atención en oficinas es de lunes a viernes de 8:30 a 14:00.",
			},
			{
				Name:     "certificado",
				Keywords: []string{"certificado"},
				Response: "Puedes descargar tu certificado de titularidad bancaria desde la app o el área de cliente web.",
			},
			{
				Name:     "prestamo",
				Keywords: []string{"préstamo"},
				Response: "Ofrecemos préstamos personales desde un 5,5% TIN con aprobación rápida online.",
			},
			{
				Name:     "inversion",
				Keywords: []string{"inversión"},
				Response: "Contamos con planes de inversión adaptados a tu perfil de riesgo, consulta con tu asesor.",
			},
		},
		Fallback: "Lo siento, no tengo información sobre eso en este momento.",
	}
}

// BuiltinTable returns the built-in rule table of one domain.
func BuiltinTable(d domain.Dominio) (domain.RuleTable, error) {
	switch d {
	case domain.DominioConsultas:
		return consultasTable(), nil
	case domain.DominioCuentas:
		return cuentasTable(), nil
	case domain.DominioIdentidad:
		return identidadTable(), nil
	case domain.DominioIA:
		return iaTable(), nil
	default:
		return domain.RuleTable{}, fmt.Errorf("%w: %q", domain.ErrUnknownDomain, d)
	}
}

// BuiltinTables returns the built-in tables of all domains in routing
// priority order.
func BuiltinTables() []domain.RuleTable {
	tables := make([]domain.RuleTable, 0, len(domain.Dominios))
	for _, d := range domain.Dominios {
		table, err := BuiltinTable(d)
		if err != nil {
			panic(err) // unreachable: Dominios only holds known domains
		}
		tables = append(tables, table)
	}
	return tables
}
